package store

import (
	"fmt"
	"sync"
	"time"

	"votepay-gateway/internal/model"
)

type attemptEntry struct {
	attempt   model.PaymentAttempt
	updatedAt time.Time
}

// AttemptStore holds in-flight payment attempts in memory. The remote
// service is the system of record; entries here exist only so the flow and
// the status endpoint can see an attempt while it settles, and a sweeper
// evicts attempts the payer abandoned.
type AttemptStore struct {
	mu   sync.RWMutex
	data map[string]*attemptEntry
	ttl  time.Duration
}

// NewAttemptStore creates an attempt store with the given eviction TTL
func NewAttemptStore(ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		data: make(map[string]*attemptEntry),
		ttl:  ttl,
	}
}

// Put records a new attempt keyed by its reference
func (s *AttemptStore) Put(attempt model.PaymentAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[attempt.Reference] = &attemptEntry{
		attempt:   attempt,
		updatedAt: time.Now(),
	}
}

// Get returns a copy of the attempt for reference
func (s *AttemptStore) Get(reference string) (model.PaymentAttempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.data[reference]
	if !ok {
		return model.PaymentAttempt{}, false
	}
	return entry.attempt, true
}

// Settle moves the attempt to a terminal settlement status. The flow
// transition table is the gatekeeper: terminal states have no successors,
// so a paid, failed or timed_out attempt cannot change again.
func (s *AttemptStore) Settle(reference string, status model.AttemptStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[reference]
	if !ok {
		return fmt.Errorf("unknown payment attempt: %s", reference)
	}

	next := model.FlowFailed
	if status == model.StatusPaid {
		next = model.FlowSucceeded
	}
	if !entry.attempt.Flow.CanTransition(next) {
		return fmt.Errorf("attempt %s cannot move from %s to %s", reference, entry.attempt.Flow, next)
	}

	entry.attempt.Status = status
	entry.attempt.Flow = next
	entry.updatedAt = time.Now()
	return nil
}

// Count returns the number of tracked attempts
func (s *AttemptStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// StartSweeper launches a background goroutine that evicts attempts whose
// last update is older than the TTL. Without it, abandoned purchases would
// stay in memory forever.
func (s *AttemptStore) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			s.Sweep()
		}
	}()
}

// Sweep evicts expired entries and returns how many were removed
func (s *AttemptStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	evicted := 0
	for reference, entry := range s.data {
		if entry.updatedAt.Before(cutoff) {
			delete(s.data, reference)
			evicted++
		}
	}
	return evicted
}
