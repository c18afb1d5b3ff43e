// Package usertest provides an in-memory user.Store for tests.
package usertest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redmonkez12/beauty-assistant-api/internal/user"
)

// Memory enforces the same uniqueness rules as the users table.
type Memory struct {
	mu     sync.Mutex
	users  map[int64]*user.User
	nextID atomic.Int64
}

var _ user.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{users: make(map[int64]*user.User)}
}

// Len returns the number of stored users.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Put stores u as given, replacing any user with the same ID.
func (m *Memory) Put(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx user.Store) error) error {
	return fn(ctx, m)
}

func (m *Memory) FindByEmailOrUsername(_ context.Context, identifier string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var byUsername *user.User
	for _, u := range m.users {
		if u.Email == identifier {
			return clone(u), nil
		}
		if u.Username == identifier {
			byUsername = u
		}
	}
	if byUsername != nil {
		return clone(byUsername), nil
	}
	return nil, user.ErrNotFound
}

func (m *Memory) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflicts(email, username, 0), nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return clone(u), nil
}

func (m *Memory) Insert(_ context.Context, nu user.NewUser) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflicts(nu.Email, nu.Username, 0) {
		return nil, user.ErrAlreadyExists
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           m.nextID.Add(1),
		Email:        nu.Email,
		Username:     nu.Username,
		FullName:     nu.FullName,
		PasswordHash: nu.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	return clone(u), nil
}

func (m *Memory) UpdateProfile(_ context.Context, id int64, upd user.ProfileUpdate) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if upd.Username != nil {
		if m.conflicts("", *upd.Username, id) {
			return nil, user.ErrAlreadyExists
		}
		u.Username = *upd.Username
	}
	if upd.FullName != nil {
		name := *upd.FullName
		u.FullName = &name
	}
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *Memory) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// conflicts must be called with mu held. Empty keys never match.
func (m *Memory) conflicts(email, username string, except int64) bool {
	for id, u := range m.users {
		if id == except {
			continue
		}
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return true
		}
	}
	return false
}

func clone(u *user.User) *user.User {
	c := *u
	return &c
}
