package directory

import (
	"strings"
	"time"
)

// Account is a member of the staff directory. The credential hash never
// leaves the process in serialized form.
type Account struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	CredentialHash string    `json:"-"`
	Role           Role      `json:"role"`
	Profile        Profile   `json:"profile"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile carries the optional descriptive fields of an account.
// Every field is independently absent.
type Profile struct {
	FirstName  *string `json:"first_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Handle     *string `json:"handle,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	Bio        *string `json:"bio,omitempty"`
}

// HasData reports whether any profile field is set.
func (p Profile) HasData() bool {
	return p.FirstName != nil || p.MiddleName != nil || p.LastName != nil ||
		p.Handle != nil || p.AvatarURL != nil || p.Bio != nil
}

// FullName composes "Last First Middle" from whichever parts are present.
func (p Profile) FullName() string {
	parts := make([]string, 0, 3)
	for _, f := range []*string{p.LastName, p.FirstName, p.MiddleName} {
		if f != nil && strings.TrimSpace(*f) != "" {
			parts = append(parts, strings.TrimSpace(*f))
		}
	}
	return strings.Join(parts, " ")
}

// ProfileUpdate describes a partial profile change; nil fields are untouched.
type ProfileUpdate struct {
	FirstName  *string
	MiddleName *string
	LastName   *string
	Handle     *string
	AvatarURL  *string
	Bio        *string
}

// AccountUpdate describes a partial account change; nil fields are untouched.
type AccountUpdate struct {
	Email    *string
	Password *string
	Role     *Role
	Profile  *ProfileUpdate
}

// NormalizeEmail applies the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
