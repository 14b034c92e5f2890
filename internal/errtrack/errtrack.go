// Package errtrack forwards unexpected failures to Sentry.
package errtrack

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter receives errors that reached the 500/504 boundary.
type Reporter interface {
	Capture(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

// Nop drops everything; used when no DSN is configured.
type Nop struct{}

func (Nop) Capture(context.Context, error, map[string]string) {}
func (Nop) Flush(time.Duration) bool                          { return true }

type Sentry struct{}

// New initializes the Sentry SDK, or returns Nop when dsn is empty.
func New(dsn, environment, release string) (Reporter, error) {
	if dsn == "" {
		return Nop{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return Sentry{}, nil
}

func (Sentry) Capture(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

func (Sentry) Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
