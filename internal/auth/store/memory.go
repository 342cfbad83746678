package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/auth"
)

// Memory keeps users in process, for the memory backend and tests.
type Memory struct {
	mu      sync.RWMutex
	byEmail map[string]auth.User
}

func NewMemory() *Memory {
	return &Memory{byEmail: make(map[string]auth.User)}
}

func (m *Memory) CreateUser(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[u.Email]; ok {
		return auth.ErrEmailTaken
	}

	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = *u

	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}

	return &u, nil
}
