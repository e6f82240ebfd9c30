package store

import (
	"sync"

	"signal-relay/internal/domain"
)

// SignalStore is the append-only in-memory signal log. Growth is unbounded;
// durable retention is out of scope.
type SignalStore struct {
	mu      sync.RWMutex
	signals []domain.Signal
	index   map[string]int
}

func NewSignalStore() *SignalStore {
	return &SignalStore{index: make(map[string]int)}
}

func (s *SignalStore) Append(sig domain.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[sig.ID] = len(s.signals)
	s.signals = append(s.signals, sig)
}

// SetResult attaches the alert outcome and flips the signal to alerted.
// It returns false when the signal id is unknown.
func (s *SignalStore) SetResult(id string, res *domain.AlertResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.signals[i].Alert = res
	s.signals[i].Status = domain.StatusAlerted
	return true
}

func (s *SignalStore) Get(id string) (domain.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Signal{}, false
	}
	return s.signals[i], true
}

// Recent returns up to n signals, newest first.
func (s *SignalStore) Recent(n int) []domain.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.signals) {
		n = len(s.signals)
	}
	out := make([]domain.Signal, 0, n)
	for i := len(s.signals) - 1; i >= len(s.signals)-n; i-- {
		out = append(out, s.signals[i])
	}
	return out
}

func (s *SignalStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}
