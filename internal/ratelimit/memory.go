package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int64
}

// MemoryStore is a process-local fixed-window store.
type MemoryStore struct {
	mu    sync.Mutex
	now   func() time.Time
	byKey map[string]window
}

// NewMemoryStore returns an empty store; now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, byKey: map[string]window{}}
}

func (m *MemoryStore) Hit(_ context.Context, key string, limit int, win time.Duration) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byKey[key]
	if !ok || now.Sub(cur.start) >= win {
		cur = window{start: now}
	}
	// capped at limit+1: later rejections do not grow the counter
	if cur.count <= int64(limit) {
		cur.count++
	}
	m.byKey[key] = cur
	return fromCount(cur.count, limit), nil
}

func (m *MemoryStore) Reset(context.Context) error {
	m.mu.Lock()
	m.byKey = map[string]window{}
	m.mu.Unlock()
	return nil
}
