// Package ratelimit implements a per-key sliding window limiter for the
// generation endpoint, in process or backed by Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Window allows at most Limit requests per key in any trailing Period.
type Window struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewWindow(limit int, period time.Duration) *Window {
	return &Window{
		limit:  limit,
		period: period,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (w *Window) Allow(_ context.Context, key string) (Decision, error) {
	now := w.now()
	cutoff := now.Add(-w.period)

	w.mu.Lock()
	defer w.mu.Unlock()

	hits := w.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]

	if len(hits) >= w.limit {
		w.hits[key] = hits
		return Decision{RetryAfter: hits[0].Add(w.period).Sub(now)}, nil
	}
	hits = append(hits, now)
	w.hits[key] = hits
	return Decision{Allowed: true, Remaining: w.limit - len(hits)}, nil
}

// Prune drops keys with no hits inside the window.
func (w *Window) Prune() int {
	cutoff := w.now().Add(-w.period)
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for k, hits := range w.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(w.hits, k)
			n++
		}
	}
	return n
}
