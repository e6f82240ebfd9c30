package store

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionStore maps bearer tokens to user ids. One token per login, no
// expiry, no revocation beyond deletion; the lifecycle is preserved as given.
type SessionStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{tokens: make(map[string]string)}
}

func (s *SessionStore) Issue(userID string) string {
	token := "tk_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return token
}

func (s *SessionStore) Resolve(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.tokens[token]
	return userID, ok
}

func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
