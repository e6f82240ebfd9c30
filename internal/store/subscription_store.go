package store

import (
	"sync"
	"time"

	"signal-relay/internal/domain"
)

// SubscriptionStore keys web-push subscriptions by endpoint. Registration is
// an idempotent upsert; delivery failures prune via Remove.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]domain.PushSubscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: make(map[string]domain.PushSubscription)}
}

// Upsert stores the subscription and reports whether it was new.
func (s *SubscriptionStore) Upsert(sub domain.PushSubscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.subs[sub.Endpoint]
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	s.subs[sub.Endpoint] = sub
	return !existed
}

func (s *SubscriptionStore) Remove(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.subs[endpoint]
	delete(s.subs, endpoint)
	return ok
}

// Snapshot returns a copy for iteration; callers may prune concurrently.
func (s *SubscriptionStore) Snapshot() []domain.PushSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PushSubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *SubscriptionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// TokenStore keeps mobile device tokens, dedup by token. Registration only:
// no send path consumes these yet.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.DeviceToken
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]domain.DeviceToken)}
}

func (s *TokenStore) Register(token, platform string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; ok {
		return false
	}
	s.tokens[token] = domain.DeviceToken{
		Token:      token,
		Platform:   platform,
		Registered: time.Now().UTC(),
	}
	return true
}

func (s *TokenStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
