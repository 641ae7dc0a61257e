// Package session holds the process-wide reactive session state: the
// current user, their role, a loading flag for in-flight auth
// operations, and the last user-facing error. A Manager is constructed
// and injected explicitly; there is no package-level singleton.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

// State is a snapshot of the session at one instant.
type State struct {
	User    *domain.User
	Role    domain.Role
	Loading bool
	Err     string
}

// Manager owns the login/logout/update lifecycle. Every mutation goes
// through it; UI code only reads snapshots and watches for changes.
type Manager struct {
	auth  ports.AuthService
	store ports.TokenStore
	log   zerolog.Logger

	mu       sync.RWMutex
	state    State
	watchers []chan struct{}
	torn     bool
}

// NewManager returns a manager in the loading state; nothing renders
// as authenticated or denied until Init has run the restore.
func NewManager(auth ports.AuthService, store ports.TokenStore, log zerolog.Logger) *Manager {
	return &Manager{auth: auth, store: store, log: log, state: State{Loading: true}}
}

// Init performs the optimistic restore: adopt whatever the Token Store
// holds without a network round-trip, trading guaranteed-fresh role
// data for instant startup. Loading is true for the duration and false
// afterwards whatever the outcome.
func (m *Manager) Init(ctx context.Context) {
	m.setLoading(true)

	sess, err := m.store.Read(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore failed, starting logged out")
	}

	m.mu.Lock()
	if sess.Authenticated() && sess.User != nil {
		u := *sess.User
		m.state.User = &u
		m.state.Role = sess.Role
		m.log.Info().Str("role", string(sess.Role)).Msg("session restored from store")
	}
	m.state.Loading = false
	m.mu.Unlock()
	m.notify()
}

// Teardown closes all watcher channels and resets the in-memory state.
// The persisted session is untouched; use Logout for that.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn {
		return
	}
	m.torn = true
	for _, ch := range m.watchers {
		close(ch)
	}
	m.watchers = nil
	m.state = State{}
}

func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	user, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.setError(domain.UserMessage(err))
		return err
	}
	m.setUser(user)
	return nil
}

func (m *Manager) Register(ctx context.Context, in ports.RegisterInput) error {
	m.setLoading(true)
	defer m.setLoading(false)

	user, err := m.auth.Register(ctx, in)
	if err != nil {
		m.setError(domain.UserMessage(err))
		return err
	}
	// Registration only opens a session when the backend issued a token.
	if m.auth.IsAuthenticated(ctx) {
		m.setUser(user)
	}
	return nil
}

// Logout always leaves the session logged out locally; the underlying
// server call is advisory and its failures are swallowed.
func (m *Manager) Logout(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	_ = m.auth.Logout(ctx)

	m.mu.Lock()
	m.state = State{Loading: true}
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Manager) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) error {
	m.setLoading(true)
	defer m.setLoading(false)

	user, err := m.auth.UpdateProfile(ctx, patch)
	if err != nil {
		m.setError(domain.UserMessage(err))
		return err
	}
	m.setUser(user)
	return nil
}

// ChangePassword proxies to the auth service with the usual loading
// lifecycle. Session state is unchanged on success; passwords are
// never cached.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.auth.ChangePassword(ctx, current, next); err != nil {
		m.setError(domain.UserMessage(err))
		return err
	}
	return nil
}

// RefreshProfile re-reads the profile from the backend; staleness is
// tolerated, so a fetch failure keeps the current state.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	user, err := m.auth.Profile(ctx)
	if err != nil {
		return err
	}
	m.setUser(user)
	return nil
}

// State returns a copy of the current state; the user record is cloned
// so callers can never mutate shared session data.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Watch returns a channel that receives a signal after every state
// change. The channel is closed by Teardown. Signals are coalesced: a
// slow consumer sees at least one signal for any burst of changes.
func (m *Manager) Watch() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{}, 1)
	if m.torn {
		close(ch)
		return ch
	}
	m.watchers = append(m.watchers, ch)
	return ch
}

// Role predicates are pure functions of the current role and return
// false, never panic, when no role is set.

func (m *Manager) IsAdmin() bool    { return m.HasRole(domain.RoleAdmin) }
func (m *Manager) IsLandlord() bool { return m.HasRole(domain.RoleLandlord) }
func (m *Manager) IsTenant() bool   { return m.HasRole(domain.RoleTenant) }

func (m *Manager) HasRole(r domain.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Role != "" && m.state.Role == r
}

// CheckAuthenticated is true only when a persisted token exists AND the
// in-memory user is present. A token alone is not enough: the restore
// may not have run yet or may have failed.
func (m *Manager) CheckAuthenticated(ctx context.Context) bool {
	m.mu.RLock()
	user := m.state.User
	m.mu.RUnlock()
	if user == nil {
		return false
	}
	return m.auth.IsAuthenticated(ctx)
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.state.Loading = v
	if v {
		m.state.Err = ""
	}
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.state.Err = msg
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) setUser(u domain.User) {
	m.mu.Lock()
	m.state.User = &u
	m.state.Role = u.Role
	m.state.Err = ""
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) notify() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
