package ports

import (
	"context"

	"github.com/rentdesk/client-go/internal/core/domain"
)

// RegisterInput is the registration payload. Optional fields the
// backend may echo back keep their caller-supplied values when the
// backend omits them.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN LANDLORD TENANT"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// AuthService covers every account operation the client performs
// against the RentDesk backend.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Register(ctx context.Context, in RegisterInput) (domain.User, error)
	// Logout clears local state first and treats the server-side
	// invalidation as advisory; it always succeeds.
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
	IsAuthenticated(ctx context.Context) bool
	// Profile fetches the freshest record, merging it over the cached
	// one; on failure it returns the cached record unchanged.
	Profile(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) (domain.User, error)
	ChangePassword(ctx context.Context, current, next string) error
}
