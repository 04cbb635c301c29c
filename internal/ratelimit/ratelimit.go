// Package ratelimit implements the per-user sliding-window request limit.
package ratelimit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Limiter decides whether one more request for key fits in the window.
// Rejected requests are not counted against the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Config struct {
	MaxRequests int
	Window      time.Duration
	// Capacity bounds the number of tracked keys in memory.
	Capacity int
}

type window struct {
	hits []time.Time
}

// MemoryLimiter keeps per-key timestamp windows in a fixed-capacity LRU.
// An entry expires one window after its last accepted hit, when every
// timestamp in it would be stale anyway; the capacity bound evicts the
// least recently seen keys first.
type MemoryLimiter struct {
	mu      sync.Mutex
	cfg     Config
	windows *lru.LRU[string, *window]
	now     func() time.Time
}

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10000
	}
	return &MemoryLimiter{
		cfg:     cfg,
		windows: lru.NewLRU[string, *window](cfg.Capacity, nil, cfg.Window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Add(-l.cfg.Window)

	w, ok := l.windows.Get(key)
	if !ok {
		w = &window{}
	}

	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(start) {
			kept = append(kept, t)
		}
	}
	w.hits = kept

	if len(w.hits) >= l.cfg.MaxRequests {
		return false, nil
	}

	w.hits = append(w.hits, now)
	// Add refreshes the entry's expiry
	l.windows.Add(key, w)
	return true, nil
}

// Len reports how many keys are currently tracked.
func (l *MemoryLimiter) Len() int {
	return l.windows.Len()
}
