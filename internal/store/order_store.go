package store

import (
	"sync"

	"signal-relay/internal/domain"
)

// OrderStore is the append-only trade order log.
type OrderStore struct {
	mu     sync.RWMutex
	orders []domain.TradeOrder
}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

func (s *OrderStore) Append(o domain.TradeOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

// ByUser returns up to limit of the user's orders, newest first.
func (s *OrderStore) ByUser(userID string, limit int) []domain.TradeOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TradeOrder, 0)
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID != userID {
			continue
		}
		out = append(out, s.orders[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Recent returns up to limit orders across all users, newest first.
func (s *OrderStore) Recent(limit int) []domain.TradeOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.orders) {
		limit = len(s.orders)
	}
	out := make([]domain.TradeOrder, 0, limit)
	for i := len(s.orders) - 1; i >= len(s.orders)-limit; i-- {
		out = append(out, s.orders[i])
	}
	return out
}

func (s *OrderStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
