package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
	"github.com/rentdesk/client-go/internal/infrastructure/store"
)

// stubAuth implements ports.AuthService with canned behaviour. Login
// and Register persist through the shared store the way the real
// service does, so CheckAuthenticated sees consistent state.
type stubAuth struct {
	store     ports.TokenStore
	loginUser domain.User
	loginErr  error
}

func (a *stubAuth) Login(ctx context.Context, email, password string) (domain.User, error) {
	if a.loginErr != nil {
		return domain.User{}, a.loginErr
	}
	if err := a.store.Save(ctx, "tok", a.loginUser); err != nil {
		return domain.User{}, err
	}
	return a.loginUser, nil
}

func (a *stubAuth) Register(ctx context.Context, in ports.RegisterInput) (domain.User, error) {
	return a.Login(ctx, in.Email, in.Password)
}

func (a *stubAuth) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *stubAuth) CurrentUser(ctx context.Context) (*domain.User, error) {
	sess, err := a.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return sess.User, nil
}

func (a *stubAuth) IsAuthenticated(ctx context.Context) bool {
	sess, err := a.store.Read(ctx)
	return err == nil && sess.Authenticated()
}

func (a *stubAuth) Profile(ctx context.Context) (domain.User, error) {
	return a.loginUser, nil
}

func (a *stubAuth) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) (domain.User, error) {
	a.loginUser = patch.Apply(a.loginUser)
	return a.loginUser, nil
}

func (a *stubAuth) ChangePassword(ctx context.Context, current, next string) error {
	return a.loginErr
}

func tenant() domain.User {
	return domain.User{ID: 1, Email: "a@b.com", FirstName: "Ada", Role: domain.RoleTenant}
}

func newTestManager(t *testing.T) (*Manager, *stubAuth, *store.Memory) {
	t.Helper()
	s := store.NewMemory()
	auth := &stubAuth{store: s, loginUser: tenant()}
	m := NewManager(auth, s, zerolog.Nop())
	t.Cleanup(m.Teardown)
	return m, auth, s
}

func TestManager_StartsLoadingUntilInit(t *testing.T) {
	m, _, _ := newTestManager(t)

	if st := m.State(); !st.Loading {
		t.Fatalf("manager must report loading before Init")
	}

	m.Init(context.Background())

	if st := m.State(); st.Loading {
		t.Fatalf("loading must be false after Init")
	}
}

func TestManager_InitRestoresPersistedSession(t *testing.T) {
	m, _, s := newTestManager(t)
	user := tenant()
	if err := s.Save(context.Background(), "tok", user); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m.Init(context.Background())

	st := m.State()
	if st.User == nil || st.User.Email != "a@b.com" {
		t.Fatalf("expected restored user, got %+v", st.User)
	}
	if st.Role != domain.RoleTenant {
		t.Fatalf("expected restored role, got %q", st.Role)
	}
	if !m.CheckAuthenticated(context.Background()) {
		t.Fatalf("restored session must be authenticated")
	}
}

func TestManager_InitWithEmptyStoreStaysLoggedOut(t *testing.T) {
	m, _, _ := newTestManager(t)

	m.Init(context.Background())

	st := m.State()
	if st.User != nil || st.Role != "" || st.Loading {
		t.Fatalf("expected logged-out state, got %+v", st)
	}
}

func TestManager_CheckAuthenticatedNeedsBothTokenAndUser(t *testing.T) {
	m, _, s := newTestManager(t)
	ctx := context.Background()

	// Token persisted but restore never ran: not authenticated.
	if err := s.Save(ctx, "tok", tenant()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if m.CheckAuthenticated(ctx) {
		t.Fatalf("token without in-memory user must not count as authenticated")
	}

	m.Init(ctx)
	if !m.CheckAuthenticated(ctx) {
		t.Fatalf("token plus in-memory user must be authenticated")
	}

	// Store cleared behind the manager's back: in-memory user alone is
	// not enough either.
	_ = s.Clear(ctx)
	if m.CheckAuthenticated(ctx) {
		t.Fatalf("in-memory user without persisted token must not count as authenticated")
	}
}

func TestManager_LoginUpdatesState(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Init(context.Background())

	if err := m.Login(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	st := m.State()
	if st.User == nil || st.User.Role != domain.RoleTenant {
		t.Fatalf("expected TENANT user in state, got %+v", st.User)
	}
	if st.Role != domain.RoleTenant {
		t.Fatalf("role must track the user record, got %q", st.Role)
	}
	if st.Loading || st.Err != "" {
		t.Fatalf("loading must end clean, got %+v", st)
	}
	if !m.IsTenant() || m.IsAdmin() {
		t.Fatalf("predicates out of sync with role")
	}
}

func TestManager_LoginFailureSetsErrorAndEndsLoading(t *testing.T) {
	m, auth, _ := newTestManager(t)
	m.Init(context.Background())
	auth.loginErr = domain.NewAPIError(domain.ErrInvalidCredentials, "email or password is wrong")

	err := m.Login(context.Background(), "a@b.com", "bad")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	st := m.State()
	if st.Loading {
		t.Fatalf("UI must never be stuck loading after a failure")
	}
	if st.Err != "email or password is wrong" {
		t.Fatalf("consolidated error string expected, got %q", st.Err)
	}
	if st.User != nil {
		t.Fatalf("failed login must not adopt a user")
	}
}

func TestManager_LogoutResetsEverything(t *testing.T) {
	m, _, s := newTestManager(t)
	m.Init(context.Background())
	if err := m.Login(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	st := m.State()
	if st.User != nil || st.Role != "" || st.Loading || st.Err != "" {
		t.Fatalf("expected zero state after logout, got %+v", st)
	}
	if sess, _ := s.Read(context.Background()); sess.Authenticated() {
		t.Fatalf("persisted session must be gone")
	}
	if m.CheckAuthenticated(context.Background()) {
		t.Fatalf("logged out session must not be authenticated")
	}
}

func TestManager_PredicatesNeverPanicWithoutRole(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Init(context.Background())

	if m.IsAdmin() || m.IsLandlord() || m.IsTenant() || m.HasRole(domain.RoleAdmin) {
		t.Fatalf("no role must mean every predicate is false")
	}
}

func TestManager_UpdateProfileExplicitEmpty(t *testing.T) {
	m, auth, _ := newTestManager(t)
	auth.loginUser.PhoneNumber = "555-1234"
	m.Init(context.Background())
	if err := m.Login(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	empty := ""
	if err := m.UpdateProfile(context.Background(), domain.ProfileUpdate{PhoneNumber: &empty}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if st := m.State(); st.User.PhoneNumber != "" {
		t.Fatalf("explicit empty must reach session state, got %q", st.User.PhoneNumber)
	}
}

func TestManager_WatchSignalsOnChange(t *testing.T) {
	m, _, _ := newTestManager(t)
	ch := m.Watch()
	m.Init(context.Background())

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("watcher not signalled by Init")
	}

	if err := m.Login(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("watcher not signalled by Login")
	}
}

func TestManager_TeardownClosesWatchers(t *testing.T) {
	m, _, _ := newTestManager(t)
	ch := m.Watch()

	m.Teardown()

	select {
	case _, open := <-ch:
		if open {
			// Drain a pending signal; the close must follow.
			if _, open := <-ch; open {
				t.Fatalf("watcher channel must be closed by Teardown")
			}
		}
	case <-time.After(time.Second):
		t.Fatalf("watcher channel must be closed by Teardown")
	}
}
