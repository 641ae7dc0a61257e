package domain

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerScheme is the authorization scheme prefix every stored token carries.
const BearerScheme = "Bearer "

// NormalizeToken guarantees the Bearer prefix is present exactly once.
// Empty input stays empty.
func NormalizeToken(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return ""
	}
	for {
		rest, found := cutPrefixFold(t, BearerScheme)
		if !found {
			break
		}
		t = strings.TrimSpace(rest)
	}
	return BearerScheme + t
}

// StripToken removes the Bearer prefix, returning the opaque credential
// the way the backend issued it.
func StripToken(token string) string {
	if rest, found := cutPrefixFold(strings.TrimSpace(token), BearerScheme); found {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(token)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// TokenExpiry decodes the token as a JWT without verifying its
// signature and returns the exp claim. The token is treated as opaque
// for every auth decision; expiry is only read for store TTLs and
// telemetry. ok is false when the token is not a decodable JWT or
// carries no exp claim.
func TokenExpiry(token string) (time.Time, bool) {
	raw := StripToken(token)
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
