package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryUsers is an in-process UserStore for tests and `server --dev`.
type MemoryUsers struct {
	mu     sync.Mutex
	nextID int64
	users  []User
}

func NewMemoryUsers() *MemoryUsers { return &MemoryUsers{} }

func (m *MemoryUsers) Create(_ context.Context, u User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, ErrEmailTaken
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *MemoryUsers) ByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *MemoryUsers) ByID(_ context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}
