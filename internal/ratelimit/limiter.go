package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store decides whether a client identity may make another request.
type Store interface {
	// Allow prunes the identity's window and admits the request if the window
	// holds fewer than the limit. Exactly-at-limit rejects.
	Allow(ctx context.Context, identity string) (bool, error)
}

// MemoryStore keeps per-identity sliding windows in process memory. This is
// advisory anti-abuse state: it is bounded by process lifetime and never
// persisted.
type MemoryStore struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryStore creates a memory-backed limiter and starts a background
// sweeper that evicts identities whose windows have fully aged out. Call
// Close to stop the sweeper.
func NewMemoryStore(limit int, window time.Duration) *MemoryStore {
	s := NewMemoryStoreWithClock(limit, window, time.Now)
	s.stopSweep = make(chan struct{})
	go s.sweepLoop(window)
	return s
}

// NewMemoryStoreWithClock creates a store with a caller-supplied clock and no
// background sweeper. Intended for tests.
func NewMemoryStoreWithClock(limit int, window time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		limit:   limit,
		window:  window,
		now:     now,
		windows: make(map[string][]time.Time),
	}
}

// Allow implements Store. The prune and append are a single critical section
// so parallel requests from one identity cannot exceed the limit.
func (s *MemoryStore) Allow(_ context.Context, identity string) (bool, error) {
	now := s.now()
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	win := s.windows[identity]
	kept := win[:0]
	for _, t := range win {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= s.limit {
		s.windows[identity] = kept
		return false, nil
	}

	s.windows[identity] = append(kept, now)
	return true, nil
}

// Close stops the background sweeper, if one is running.
func (s *MemoryStore) Close() {
	if s.stopSweep == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stopSweep) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

// sweep drops identities whose every timestamp has aged out of the window.
func (s *MemoryStore) sweep() {
	cutoff := s.now().Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for identity, win := range s.windows {
		stale := true
		for _, t := range win {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(s.windows, identity)
		}
	}
}
