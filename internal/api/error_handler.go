package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/core/domain"
)

// errorResponse is the canonical error envelope for all portal errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the auth error taxonomy to deterministic HTTP status codes.
//   - Prefers the backend-supplied message, falling back to a generic one.
//   - Logs unexpected errors internally without leaking details.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known auth errors → deterministic codes, user-facing messages.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.UserMessage(err)
	case errors.Is(err, domain.ErrAuthExpired):
		return http.StatusUnauthorized, domain.UserMessage(err)
	case errors.Is(err, domain.ErrAuthDenied):
		return http.StatusForbidden, domain.UserMessage(err)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidCurrentPassword):
		return http.StatusBadRequest, domain.UserMessage(err)
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway, domain.UserMessage(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
