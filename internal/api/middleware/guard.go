package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/session"
)

// SessionReader is the slice of the session manager the guard needs.
type SessionReader interface {
	State() session.State
	CheckAuthenticated(ctx context.Context) bool
}

// GuardConfig controls where denied requests are sent.
type GuardConfig struct {
	// LoginPath receives unauthenticated requests. Default "/login".
	LoginPath string
	// UnauthorizedPath receives authenticated requests whose role is
	// outside AllowedRoles. Default "/unauthorized".
	UnauthorizedPath string
	// AllowedRoles limits access; empty means any authenticated role.
	AllowedRoles []domain.Role
	// Pending renders while the session is still restoring. Defaults
	// to an empty 204 placeholder.
	Pending echo.HandlerFunc
}

// Guard gates protected routes on the session state. It is a pure
// three-way decision — pending, denied, granted — driven entirely by
// the session manager; the guard itself holds no state.
func Guard(sess SessionReader, cfg GuardConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.UnauthorizedPath == "" {
		cfg.UnauthorizedPath = "/unauthorized"
	}
	if cfg.Pending == nil {
		cfg.Pending = func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		}
	}

	allowed := make(map[domain.Role]struct{}, len(cfg.AllowedRoles))
	for _, r := range cfg.AllowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := sess.State()

			// Pending: restore still running, render the placeholder.
			if st.Loading {
				return cfg.Pending(c)
			}

			// Denied: not authenticated at all.
			if !sess.CheckAuthenticated(c.Request().Context()) {
				return c.Redirect(http.StatusFound, cfg.LoginPath)
			}

			// Denied: authenticated but the role is not in the allowed
			// set. The switch is exhaustive over the Role enum; anything
			// else is treated as no role and never granted.
			if len(allowed) > 0 {
				switch st.Role {
				case domain.RoleAdmin, domain.RoleLandlord, domain.RoleTenant:
					if _, ok := allowed[st.Role]; !ok {
						return c.Redirect(http.StatusFound, cfg.UnauthorizedPath)
					}
				default:
					return c.Redirect(http.StatusFound, cfg.UnauthorizedPath)
				}
			}

			// Granted.
			c.Set("user", st.User)
			c.Set("role", st.Role)
			return next(c)
		}
	}
}
