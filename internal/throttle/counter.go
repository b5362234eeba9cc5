package throttle

import (
	"context"
	"sync"
	"time"
)

// Counter is a fixed-window hit counter shared by the sign-in attempt limiter
// and the per-IP rate limit middleware.
type Counter interface {
	// Hit increments key and returns the new count and the time left in
	// the current window. The window starts on the first hit.
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
	Peek(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// sweepEvery bounds how often Hit walks the map for expired buckets.
const sweepEvery = time.Minute

// MemoryCounter is the single-process Counter used when no redis is configured.
type MemoryCounter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// the ip limiter only ever calls Hit, one key per client address
	if !now.Before(m.nextSweep) {
		m.sweepLocked(now)
	}

	b, ok := m.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		b = &bucket{windowEnd: now.Add(window)}
		m.buckets[key] = b
	}

	b.count++
	return b.count, b.windowEnd.Sub(now), nil
}

func (m *MemoryCounter) Peek(_ context.Context, key string) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		return 0, nil
	}
	if !now.Before(b.windowEnd) {
		delete(m.buckets, key)
		return 0, nil
	}
	return b.count, nil
}

func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.buckets, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCounter) sweepLocked(now time.Time) {
	for k, b := range m.buckets {
		if !now.Before(b.windowEnd) {
			delete(m.buckets, k)
		}
	}
	m.nextSweep = now.Add(sweepEvery)
}

// Len is the number of live and not yet swept buckets.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
