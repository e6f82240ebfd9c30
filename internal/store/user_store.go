package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"signal-relay/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrUserNotFound      = errors.New("user not found")
	ErrBrokerageRequired = errors.New("brokerage credentials must be connected before enabling algo trading")
)

// UserStore holds the user table in process memory. It is the authoritative
// store; there is deliberately no durable backing (see the repository package
// for the optional archives that do have one).
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

// Seed inserts a user with a fixed id, used for the bootstrap admin account.
func (s *UserStore) Seed(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
}

func (s *UserStore) Create(name, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return domain.User{}, ErrEmailTaken
		}
	}

	u := &domain.User{
		ID:        "user_" + uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Password:  password,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	return *u, nil
}

// Authenticate does a plaintext credential comparison, preserved as given.
func (s *UserStore) Authenticate(email, password string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.Password == password {
			return *u, true
		}
	}
	return domain.User{}, false
}

func (s *UserStore) Get(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

func (s *UserStore) SetBrokerage(id string, cfg domain.BrokerageConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	cp := cfg
	if cp.ConnectedAt.IsZero() {
		cp.ConnectedAt = time.Now().UTC()
	}
	u.Brokerage = &cp
	return nil
}

// SetAlgoEnabled is the mutation boundary for the algo invariant: enabling is
// rejected while no brokerage config is present.
func (s *UserStore) SetAlgoEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if enabled && u.Brokerage == nil {
		return ErrBrokerageRequired
	}
	u.AlgoEnabled = enabled
	return nil
}

// AlgoUsers returns a copy of every user eligible for auto-trade fan-out.
func (s *UserStore) AlgoUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0)
	for _, u := range s.users {
		if u.AlgoEligible() {
			out = append(out, *u)
		}
	}
	return out
}

func (s *UserStore) All() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out
}

func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
