package store

import (
	"context"
	"sync"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

// Memory is an in-process TokenStore. It backs tests and embeddings
// that do not need the session to survive a restart.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  *domain.User
}

func NewMemory() *Memory {
	return &Memory{}
}

// Save stores the normalized token and user as one atomic pair.
func (m *Memory) Save(_ context.Context, token string, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := user
	m.token = domain.NormalizeToken(token)
	m.user = &u
	return nil
}

func (m *Memory) Read(_ context.Context) (ports.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || m.user == nil {
		return ports.Session{}, nil
	}
	u := *m.user
	return ports.Session{Token: m.token, User: &u, Role: u.Role}, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}
