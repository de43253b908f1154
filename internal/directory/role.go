package directory

import (
	"fmt"
	"strings"
)

// Role is the single access-control attribute of an account.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleGuest    Role = "guest"
)

// Roles lists every role from most to least privileged.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleEmployee, RoleGuest}
}

// Level places roles on a total order; higher means more privileged.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleEmployee:
		return 1
	default:
		return 0
	}
}

// IsPrivileged reports whether the role carries administrative rights.
func (r Role) IsPrivileged() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// ParseRole resolves a case-insensitive role name.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "admin":
		return RoleAdmin, nil
	case "employee":
		return RoleEmployee, nil
	case "guest":
		return RoleGuest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// ParseRoleOrDefault falls back to guest when the name does not parse.
// Sign-up paths use this so a bad role never blocks account creation.
func ParseRoleOrDefault(s string) Role {
	role, err := ParseRole(s)
	if err != nil {
		return RoleGuest
	}
	return role
}
