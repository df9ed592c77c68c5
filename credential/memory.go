package credential

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuscore/aaa/permission"
)

const stripeCount = 64

// Hasher is the password hashing dependency, satisfied by
// password.Hasher.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// MemoryStore is the in-process credential store.
type MemoryStore struct {
	hasher Hasher

	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string

	stripes [stripeCount]sync.RWMutex
}

// NewMemoryStore creates an empty store using the given hasher.
func NewMemoryStore(hasher Hasher) *MemoryStore {
	return &MemoryStore{
		hasher:  hasher,
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) stripe(id string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.stripes[h.Sum32()%stripeCount]
}

// Register implements Store. The duplicate check and the insert happen
// under one write lock so two concurrent registrations of the same email
// cannot both succeed.
func (s *MemoryStore) Register(_ context.Context, email, password string, role permission.Role) (User, error) {
	if !role.Valid() {
		return User{}, permission.ErrUnknownRole
	}

	// Hash outside the lock; Argon2 is deliberately slow.
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return User{}, ErrDuplicateUser
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID
	return *user, nil
}

// Verify implements Store.
func (s *MemoryStore) Verify(_ context.Context, email, password string) (User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}

	user, err := s.snapshot(id)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return User{}, err
	}
	if !match {
		return User{}, ErrInvalidCredentials
	}
	if user.Disabled() {
		// The account is identified; returning it lets the caller
		// attribute the refusal in its audit trail.
		return user, ErrUserDisabled
	}
	return user, nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(_ context.Context, id string) (User, error) {
	return s.snapshot(id)
}

// SetRole implements Store.
func (s *MemoryStore) SetRole(_ context.Context, id string, role permission.Role) (User, error) {
	if !role.Valid() {
		return User{}, permission.ErrUnknownRole
	}
	return s.mutate(id, func(u *User) {
		u.Role = role
	})
}

// SetStatus implements Store.
func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) (User, error) {
	return s.mutate(id, func(u *User) {
		u.Status = status
	})
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]User, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	users := make([]User, 0, len(ids))
	for _, id := range ids {
		user, err := s.snapshot(id)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Len returns the number of accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MemoryStore) snapshot(id string) (User, error) {
	s.mu.RLock()
	user, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrUserNotFound
	}

	stripe := s.stripe(id)
	stripe.RLock()
	defer stripe.RUnlock()
	return *user, nil
}

func (s *MemoryStore) mutate(id string, apply func(*User)) (User, error) {
	s.mu.RLock()
	user, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrUserNotFound
	}

	stripe := s.stripe(id)
	stripe.Lock()
	defer stripe.Unlock()
	apply(user)
	return *user, nil
}
