package identity

import (
	"errors"
	"strings"
)

// Role is the access role carried in JWT claims. Token issuance is handled
// by the platform's auth service; this module only verifies and gates.
type Role string

const (
	RoleDispatcher Role = "DISPATCHER"
	RoleOperator   Role = "OPERATOR"
	RoleAdmin      Role = "ADMIN"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes and validates a role string.
func ParseRole(in string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(in)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether role is one of the known roles.
func (role Role) Valid() bool {
	switch role {
	case RoleDispatcher, RoleOperator, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Role.
func (role Role) String() string {
	return string(role)
}
