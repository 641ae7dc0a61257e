package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

const (
	defaultLogoutTimeout = 5 * time.Second
	minPasswordLength    = 8
)

// Auth implements ports.AuthService against the RentDesk REST backend.
// All normalization and field defaulting happens here, once, at the
// response boundary; the rest of the application only sees complete
// User records.
type Auth struct {
	store         ports.TokenStore
	client        *http.Client
	baseURL       string
	log           zerolog.Logger
	validate      *validator.Validate
	logoutTimeout time.Duration
}

// NewAuth builds the service. client should be backed by the bearer
// transport so authenticated calls pick up refresh-and-replay.
func NewAuth(store ports.TokenStore, client *http.Client, baseURL string, log zerolog.Logger) *Auth {
	if client == nil {
		client = http.DefaultClient
	}
	return &Auth{
		store:         store,
		client:        client,
		baseURL:       strings.TrimRight(baseURL, "/"),
		log:           log,
		validate:      validator.New(),
		logoutTimeout: defaultLogoutTimeout,
	}
}

// authPayload is the flat response shape login/register/profile share.
type authPayload struct {
	Token        string `json:"token"`
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
	ProfileImage string `json:"profileImage"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

// toUser normalizes a backend payload into a complete User: omitted
// strings become "", an absent or unknown role becomes TENANT.
func (p authPayload) toUser() domain.User {
	return domain.User{
		ID:           p.ID,
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         domain.ParseRole(p.Role),
		PhoneNumber:  p.PhoneNumber,
		Address:      p.Address,
		ProfileImage: p.ProfileImage,
		City:         p.City,
		State:        p.State,
		ZipCode:      p.ZipCode,
	}
}

func (a *Auth) Login(ctx context.Context, email, password string) (domain.User, error) {
	// Credentials are ephemeral: serialized for this one request and
	// never persisted.
	creds := map[string]string{"email": email, "password": password}

	resp, err := a.send(ctx, http.MethodPost, "/auth/login", creds)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		var p authPayload
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || p.Token == "" {
			return domain.User{}, domain.NewAPIError(domain.ErrUnknown, "login response missing token")
		}
		user := p.toUser()
		if err := a.store.Save(ctx, p.Token, user); err != nil {
			return domain.User{}, fmt.Errorf("persist session: %w", err)
		}
		a.log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("login succeeded")
		return user, nil

	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusForbidden:
		return domain.User{}, domain.NewAPIError(domain.ErrInvalidCredentials, backendMessage(resp))

	default:
		return domain.User{}, domain.NewAPIError(domain.ErrUnknown, backendMessage(resp))
	}
}

func (a *Auth) Register(ctx context.Context, in ports.RegisterInput) (domain.User, error) {
	if err := a.validate.Struct(in); err != nil {
		return domain.User{}, domain.NewAPIError(domain.ErrValidation, validationMessage(err))
	}

	resp, err := a.send(ctx, http.MethodPost, "/auth/register", in)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var p authPayload
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return domain.User{}, domain.NewAPIError(domain.ErrUnknown, "register response unreadable")
		}
		// Caller-supplied optional fields survive wherever the backend
		// echoes nothing back.
		supplied := domain.User{
			Email:       in.Email,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			Role:        domain.ParseRole(in.Role),
			PhoneNumber: in.PhoneNumber,
			Address:     in.Address,
			City:        in.City,
			State:       in.State,
			ZipCode:     in.ZipCode,
		}
		user := domain.Merge(supplied, p.toUser())
		if p.Token != "" {
			if err := a.store.Save(ctx, p.Token, user); err != nil {
				return domain.User{}, fmt.Errorf("persist session: %w", err)
			}
		}
		a.log.Info().Str("email", user.Email).Msg("registration succeeded")
		return user, nil

	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusConflict,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.User{}, domain.NewAPIError(domain.ErrValidation, backendMessage(resp))

	default:
		return domain.User{}, domain.NewAPIError(domain.ErrUnknown, backendMessage(resp))
	}
}

// Logout clears local state first, so the client is logged out whatever
// the server does, then fires a bounded best-effort invalidation call.
// It never reports failure.
func (a *Auth) Logout(ctx context.Context) error {
	sess, _ := a.store.Read(ctx)

	if err := a.store.Clear(ctx); err != nil {
		a.log.Error().Err(err).Msg("clearing local session")
	}

	if !sess.Authenticated() {
		return nil
	}

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.logoutTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(lctx, http.MethodPost, a.baseURL+"/auth/logout", nil)
	if err != nil {
		return nil
	}
	// The token is gone from the store already; attach the one read
	// before clearing so the server can invalidate the right session.
	req.Header.Set("Authorization", sess.Token)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Debug().Err(err).Msg("server-side logout failed, ignoring")
		return nil
	}
	drain(resp)
	return nil
}

func (a *Auth) CurrentUser(ctx context.Context) (*domain.User, error) {
	sess, err := a.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return sess.User, nil
}

func (a *Auth) IsAuthenticated(ctx context.Context) bool {
	sess, err := a.store.Read(ctx)
	return err == nil && sess.Authenticated()
}

// Profile fetches the freshest record from the backend. A stale cached
// record beats a hard failure: any error leaves the cache untouched and
// returns it as-is.
func (a *Auth) Profile(ctx context.Context) (domain.User, error) {
	sess, _ := a.store.Read(ctx)

	resp, err := a.send(ctx, http.MethodGet, "/auth/profile", nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		var msg string
		if resp != nil {
			msg = backendMessage(resp)
			drain(resp)
		}
		if sess.User != nil {
			a.log.Debug().Err(err).Msg("profile fetch failed, serving cached record")
			return *sess.User, nil
		}
		if err != nil {
			return domain.User{}, fmt.Errorf("profile: %w", err)
		}
		return domain.User{}, domain.NewAPIError(domain.ErrUnknown, msg)
	}
	defer drain(resp)

	var p authPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		if sess.User != nil {
			return *sess.User, nil
		}
		return domain.User{}, domain.NewAPIError(domain.ErrUnknown, "profile response unreadable")
	}

	fresh := p.toUser()
	if sess.User != nil {
		fresh = domain.Merge(*sess.User, fresh)
	}
	if sess.Authenticated() {
		if err := a.store.Save(ctx, sess.Token, fresh); err != nil {
			return domain.User{}, fmt.Errorf("persist profile: %w", err)
		}
	}
	return fresh, nil
}

// UpdateProfile sends only the supplied fields. An explicit empty
// string is a real value and is persisted as such, never treated as
// "unchanged".
func (a *Auth) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) (domain.User, error) {
	sess, _ := a.store.Read(ctx)
	if sess.User == nil {
		return domain.User{}, domain.NewAPIError(domain.ErrAuthExpired, "no active session")
	}

	resp, err := a.send(ctx, http.MethodPut, "/auth/profile", patch)
	if err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		// The patch, not the backend echo, is authoritative for the
		// fields it names; echo-based merging would turn an explicit
		// clear back into the old value.
		updated := patch.Apply(*sess.User)
		if err := a.store.Save(ctx, sess.Token, updated); err != nil {
			return domain.User{}, fmt.Errorf("persist profile: %w", err)
		}
		return updated, nil

	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.User{}, domain.NewAPIError(domain.ErrValidation, backendMessage(resp))

	case resp.StatusCode == http.StatusForbidden:
		return domain.User{}, domain.NewAPIError(domain.ErrAuthDenied, backendMessage(resp))

	default:
		return domain.User{}, domain.NewAPIError(domain.ErrUnknown, backendMessage(resp))
	}
}

func (a *Auth) ChangePassword(ctx context.Context, current, next string) error {
	if len(next) < minPasswordLength {
		return domain.NewAPIError(domain.ErrWeakPassword,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	body := map[string]string{"currentPassword": current, "newPassword": next}
	resp, err := a.send(ctx, http.MethodPut, "/auth/password", body)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return domain.NewAPIError(domain.ErrInvalidCurrentPassword, backendMessage(resp))
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.NewAPIError(domain.ErrWeakPassword, backendMessage(resp))
	case resp.StatusCode == http.StatusForbidden:
		return domain.NewAPIError(domain.ErrAuthDenied, backendMessage(resp))
	default:
		return domain.NewAPIError(domain.ErrUnknown, backendMessage(resp))
	}
}

// send serializes body as JSON and performs the request. A transport
// error is always reported as a network failure, distinguishable from
// every auth outcome; auth-expiry escalation from the bearer transport
// passes through untouched.
func (a *Auth) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		if errors.Is(err, domain.ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	return resp, nil
}

// backendMessage pulls the human-readable error out of the standard
// {"error": "..."} envelope, tolerating {"message": "..."} as well.
func backendMessage(resp *http.Response) string {
	var p struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&p)
	if p.Error != "" {
		return p.Error
	}
	return p.Message
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
