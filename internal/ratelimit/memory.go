package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	end   time.Time
	hits  int
}

// MemoryStore keeps counters in process memory. It does not coordinate
// across instances.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, d time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now, d)

	w, ok := s.windows[key]
	if !ok || !now.Before(w.end) {
		w = &window{start: now, end: now.Add(d)}
		s.windows[key] = w
	}
	w.hits++
	return w.hits, w.start, nil
}

// sweep drops expired windows at most once per d.
func (s *MemoryStore) sweep(now time.Time, d time.Duration) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, w := range s.windows {
		if !now.Before(w.end) {
			delete(s.windows, k)
		}
	}
	s.nextSweep = now.Add(d)
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
