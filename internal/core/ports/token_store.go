package ports

import (
	"context"

	"github.com/rentdesk/client-go/internal/core/domain"
)

// Session is the persisted authentication state for one profile.
// Role is derived from User at read time, never stored separately, so
// the two cannot diverge.
type Session struct {
	Token string
	User  *domain.User
	Role  domain.Role
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool { return s.Token != "" }

// TokenStore is the single source of truth for what survives process
// restarts. Save and Clear are atomic with respect to Read: a reader
// never observes a token without its user or vice versa.
type TokenStore interface {
	// Save persists the token (normalized to carry the Bearer prefix
	// exactly once) together with the user record, unconditionally
	// overwriting any prior session.
	Save(ctx context.Context, token string, user domain.User) error

	// Read returns the current session, or a zero Session when nothing
	// is stored. Malformed persisted data reads as absent; Read never
	// fails because of it.
	Read(ctx context.Context) (Session, error)

	// Clear removes the persisted session. Idempotent.
	Clear(ctx context.Context) error
}

// Navigator abstracts the application's routing system. The transport
// invokes it when authentication is irrecoverably lost.
type Navigator interface {
	ToLogin()
	ToUnauthorized()
}
