package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the auth pipeline. Transport and service code wrap
// these sentinels so callers can branch with errors.Is while still
// surfacing a backend-supplied message.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrWeakPassword           = errors.New("password does not meet the minimum requirements")
	ErrNetwork                = errors.New("network unreachable")
	ErrAuthExpired            = errors.New("authentication expired")
	ErrAuthDenied             = errors.New("access denied")
	ErrUnknown                = errors.New("unexpected error")
)

// APIError attaches the backend's human-readable message to one of the
// sentinel kinds above. errors.Is(err, kind) matches through it.
type APIError struct {
	Kind    error
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Kind }

// NewAPIError builds an APIError, falling back to the sentinel's own
// text when the backend supplied no message.
func NewAPIError(kind error, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

// UserMessage extracts the message a form should display: the backend's
// text when present, otherwise the sentinel's generic one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	for _, kind := range []error{
		ErrInvalidCredentials, ErrValidation, ErrInvalidCurrentPassword,
		ErrWeakPassword, ErrNetwork, ErrAuthExpired, ErrAuthDenied,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return fmt.Sprintf("%s: %v", ErrUnknown.Error(), err)
}
