package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotFound = errors.New("cache entry not found")

type entry[V any] struct {
	expiresAt time.Time
	v         V
}

func (e *entry[V]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Memory is an in-process key value store whose entries expire after a TTL.
// It is safe for concurrent use.
type Memory[V any] struct {
	mu         sync.Mutex
	m          map[string]*entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

type MemoryOption[V any] func(m *Memory[V])

// WithClock overrides the time source, mostly for tests.
func WithClock[V any](now func() time.Time) MemoryOption[V] {
	return func(m *Memory[V]) {
		m.now = now
	}
}

// NewMemory creates the cache and starts the background expirer. The expirer
// stops when ctx is done.
func NewMemory[V any](ctx context.Context, defaultTTL time.Duration, opts ...MemoryOption[V]) *Memory[V] {
	cache := &Memory[V]{
		m:          make(map[string]*entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.expirer(ctx, time.Second)

	return cache
}

func (m *Memory[V]) Set(k string, v V, ttl ...time.Duration) {
	d := m.defaultTTL
	if len(ttl) > 0 {
		d = ttl[0]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.m[k] = &entry[V]{
		expiresAt: m.now().Add(d),
		v:         v,
	}

	slog.Debug("new cache entry", "key", k)
}

func (m *Memory[V]) Get(k string) (v V, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, found := m.m[k]
	if !found {
		return v, ErrNotFound
	}

	if e.isExpired(m.now()) {
		slog.Debug("cache expired", "key", k)
		delete(m.m, k)
		return v, ErrNotFound
	}

	return e.v, nil
}

// GetOrSet returns the cached value of key or computes it with valueFunc.
// Failed computations are not cached.
func (m *Memory[V]) GetOrSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (V, error), ttl ...time.Duration) (v V, err error) {
	v, err = m.Get(key)
	if err == nil {
		return v, nil
	}

	v, err = valueFunc(ctx)
	if err != nil {
		return v, err
	}

	m.Set(key, v, ttl...)

	return v, nil
}

// Len returns the number of entries, expired ones included until the next sweep.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

func (m *Memory[V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.m {
		if e.isExpired(now) {
			slog.Debug("cache expired", "key", k)
			delete(m.m, k)
		}
	}
}

func (m *Memory[V]) expirer(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}
