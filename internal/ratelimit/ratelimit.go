// Package ratelimit implements a fixed-window request counter keyed by
// "<prefix>:<client>", backed by memory or by a durable Redis store.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

// Options bounds one key. Zero values fall back to DefaultLimit / DefaultWindow.
type Options struct {
	Limit  int
	Window time.Duration
}

func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	return o
}

// Result is the outcome of one Check.
type Result struct {
	Allowed   bool
	Remaining int
}

// fromCount maps the post-increment counter onto a Result.
func fromCount(count int64, limit int) Result {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= int64(limit), Remaining: int(remaining)}
}

// Store counts hits per key within a fixed window. Implementations must make the
// increment-and-read atomic per key.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context) error
}

// Limiter checks keys against a durable store, or the in-memory store when
// none is configured or the durable store is failing.
type Limiter struct {
	store    Store
	fallback *MemoryStore
	log      *zap.Logger
}

// New returns a Limiter. store may be nil.
func New(store Store, log *zap.Logger) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Limiter{store: store, fallback: NewMemoryStore(nil), log: log.Named("ratelimit")}
}

// Check records one hit for key and reports whether it is within the limit.
func (l *Limiter) Check(ctx context.Context, key string, opts Options) Result {
	opts = opts.normalized()
	if l.store != nil {
		res, err := l.store.Hit(ctx, key, opts.Limit, opts.Window)
		if err == nil {
			return res
		}
		l.log.Warn("durable store unavailable, using memory counters",
			zap.String("key", key), zap.Error(err))
	}
	res, _ := l.fallback.Hit(ctx, key, opts.Limit, opts.Window)
	return res
}

// Reset clears every counter in both stores.
func (l *Limiter) Reset(ctx context.Context) error {
	_ = l.fallback.Reset(ctx)
	if l.store != nil {
		return l.store.Reset(ctx)
	}
	return nil
}

// Key joins an endpoint prefix and a client identity.
func Key(prefix, client string) string {
	return prefix + ":" + client
}
