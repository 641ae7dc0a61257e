// Package transport implements the single outbound request pipeline for
// authenticated RentDesk API calls: bearer injection, bounded
// refresh-and-replay on auth expiry, and forced logout when the session
// cannot be recovered.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rentdesk/client-go/internal/api/metrics"
	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

// maxAuthRetries bounds how often a single request may be replayed
// after a refresh. The counter travels in the request context, so the
// bound holds even across nested round trips.
const maxAuthRetries = 1

type ctxKey struct{}

func attemptFrom(ctx context.Context) int {
	n, _ := ctx.Value(ctxKey{}).(int)
	return n
}

func withAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// Bearer is an http.RoundTripper that attaches the stored bearer token
// to every request. On a 401 for a token-carrying request it performs
// exactly one refresh (de-duplicated across concurrent failures) and
// replays the request once with the new token. When the refresh itself
// fails it clears the Token Store and sends the application to login.
//
// 403 responses pass through untouched: denied is not expired, and
// refreshing would not help. Transport-level failures are wrapped in
// domain.ErrNetwork so they can never be mistaken for auth failures.
type Bearer struct {
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper

	// Store supplies the current token and receives refreshed ones.
	Store ports.TokenStore

	// RefreshURL is the absolute URL of the token refresh endpoint.
	// Empty disables refresh; a 401 then passes through.
	RefreshURL string

	// Nav is invoked on unrecoverable auth failure. Optional.
	Nav ports.Navigator

	Log zerolog.Logger

	refresh singleflight.Group
}

func (b *Bearer) base() http.RoundTripper {
	if b.Base != nil {
		return b.Base
	}
	return http.DefaultTransport
}

func (b *Bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	sess, _ := b.Store.Read(ctx)

	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(ctx)
	hasToken := sess.Authenticated()
	if hasToken {
		out.Header.Set("Authorization", sess.Token)
	}

	resp, err := b.base().RoundTrip(out)
	if err != nil {
		metrics.NetworkErrorsTotal.WithLabelValues(req.Method).Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	metrics.RequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusUnauthorized || !hasToken ||
		b.RefreshURL == "" || attemptFrom(ctx) >= maxAuthRetries {
		return resp, nil
	}

	// Auth expired on a request that has not been replayed yet: drain
	// the 401 body so the connection can be reused, refresh, replay.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	token, err := b.refreshToken(ctx, sess)
	if err != nil {
		b.forceLogout(ctx)
		return nil, fmt.Errorf("token refresh: %w", domain.ErrAuthExpired)
	}

	retry := req.Clone(withAttempt(ctx, attemptFrom(ctx)+1))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", token)

	metrics.AuthRetriesTotal.Inc()
	b.Log.Debug().Str("method", req.Method).Str("path", req.URL.Path).
		Msg("replaying request with refreshed token")

	// Recurse so the replay gets the same network-error wrapping and
	// accounting; the attempt counter stops a second refresh.
	return b.RoundTrip(retry)
}

// refreshToken performs the refresh call, persisting the new token next
// to the existing user record. Concurrent callers share one in-flight
// refresh via singleflight.
func (b *Bearer) refreshToken(ctx context.Context, sess ports.Session) (string, error) {
	v, err, _ := b.refresh.Do("refresh", func() (any, error) {
		// Another request may have refreshed the token while this one
		// was waiting on its 401; reuse the stored token instead of
		// spending a second refresh.
		if cur, err := b.Store.Read(ctx); err == nil && cur.Token != "" && cur.Token != sess.Token {
			return cur.Token, nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.RefreshURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", sess.Token)

		resp, err := b.base().RoundTrip(req)
		if err != nil {
			metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("refresh rejected with status %d: %w", resp.StatusCode, domain.ErrAuthExpired)
		}

		var payload struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Token == "" {
			metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("refresh returned no token: %w", domain.ErrAuthExpired)
		}

		token := domain.NormalizeToken(payload.Token)
		if sess.User != nil {
			if err := b.Store.Save(ctx, token, *sess.User); err != nil {
				metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
				return nil, fmt.Errorf("persist refreshed token: %w", err)
			}
		}

		metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *Bearer) forceLogout(ctx context.Context) {
	metrics.ForcedLogoutsTotal.Inc()
	if err := b.Store.Clear(ctx); err != nil {
		b.Log.Error().Err(err).Msg("clearing session after failed refresh")
	}
	b.Log.Warn().Msg("token refresh failed, forcing logout")
	if b.Nav != nil {
		b.Nav.ToLogin()
	}
}
