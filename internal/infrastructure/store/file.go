package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

// File persists the session as a JSON document on disk, the durable
// analogue of browser storage for CLI and desktop embeddings. Writes go
// through a temp file and rename so a crash mid-write leaves either the
// old session or the new one, never a torn pair.
type File struct {
	mu   sync.Mutex
	path string
}

type persistedSession struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Save(_ context.Context, token string, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := persistedSession{Token: domain.NormalizeToken(token), User: &user}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("session temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("session write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("session close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("session rename: %w", err)
	}
	return nil
}

// Read returns a zero session when the file is absent or unparsable;
// corrupt persisted state is treated as logged out, never as an error.
func (f *File) Read(_ context.Context) (ports.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return ports.Session{}, nil
	}

	var doc persistedSession
	if err := json.Unmarshal(data, &doc); err != nil {
		return ports.Session{}, nil
	}
	if doc.Token == "" || doc.User == nil {
		return ports.Session{}, nil
	}
	return ports.Session{Token: doc.Token, User: doc.User, Role: doc.User.Role}, nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session remove: %w", err)
	}
	return nil
}
