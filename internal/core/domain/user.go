package domain

// Role is the closed set of access levels a RentDesk account can hold.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleLandlord Role = "LANDLORD"
	RoleTenant   Role = "TENANT"
)

// ParseRole maps a raw role string to a Role. Unknown or empty input
// defaults to RoleTenant; this defaulting happens only at the
// normalization boundary, never at call sites.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleLandlord, RoleTenant:
		return Role(s)
	default:
		return RoleTenant
	}
}

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLandlord, RoleTenant:
		return true
	}
	return false
}

// User models an authenticated RentDesk account as cached on the client.
// Optional fields are normalized to the empty string exactly once, when
// the backend response is first decoded.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         Role   `json:"role"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
	ProfileImage string `json:"profileImage"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

// ProfileUpdate is a partial update of the mutable profile fields.
// A nil pointer means "leave unchanged"; a pointer to "" means
// "explicitly clear" — the two are never conflated.
type ProfileUpdate struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	Address      *string `json:"address,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ZipCode      *string `json:"zipCode,omitempty"`
}

// Apply returns a copy of u with every supplied field overwritten.
func (p ProfileUpdate) Apply(u User) User {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.PhoneNumber, p.PhoneNumber)
	set(&u.Address, p.Address)
	set(&u.ProfileImage, p.ProfileImage)
	set(&u.City, p.City)
	set(&u.State, p.State)
	set(&u.ZipCode, p.ZipCode)
	return u
}

// Merge overlays fresh onto cached, field by field, preferring fresh
// values and keeping the cached value wherever the backend omitted the
// field. The ID is taken from fresh only when non-zero.
func Merge(cached, fresh User) User {
	out := cached
	if fresh.ID != 0 {
		out.ID = fresh.ID
	}
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.Email, fresh.Email)
	pick(&out.FirstName, fresh.FirstName)
	pick(&out.LastName, fresh.LastName)
	pick(&out.PhoneNumber, fresh.PhoneNumber)
	pick(&out.Address, fresh.Address)
	pick(&out.ProfileImage, fresh.ProfileImage)
	pick(&out.City, fresh.City)
	pick(&out.State, fresh.State)
	pick(&out.ZipCode, fresh.ZipCode)
	if fresh.Role.Valid() {
		out.Role = fresh.Role
	}
	return out
}
