package permission

import (
	"errors"
	"fmt"
)

// Role is the closed set of roles known to the platform. The zero value is
// RoleUnknown, which never authorizes anything.
type Role uint8

const (
	// RoleUnknown is the zero Role. It carries no permissions.
	RoleUnknown Role = iota
	// RoleAdmin is the administrative role. It holds the wildcard grant.
	RoleAdmin
	// RoleInstructor is the teaching-staff role.
	RoleInstructor
	// RoleStudent is the default role assigned at registration.
	RoleStudent
	// RoleStaff is the non-teaching operations role.
	RoleStaff

	roleCount
)

// ErrUnknownRole is returned when a role name or value is outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

var roleNames = [roleCount]string{
	RoleUnknown:    "unknown",
	RoleAdmin:      "admin",
	RoleInstructor: "instructor",
	RoleStudent:    "student",
	RoleStaff:      "staff",
}

// String returns the wire name of the role ("admin", "instructor", ...).
func (r Role) String() string {
	if r >= roleCount {
		return fmt.Sprintf("role(%d)", uint8(r))
	}
	return roleNames[r]
}

// Valid reports whether r is a member of the closed role set.
// RoleUnknown is not valid.
func (r Role) Valid() bool {
	return r > RoleUnknown && r < roleCount
}

// ParseRole maps a wire name back to a Role. Unrecognized names return
// RoleUnknown and ErrUnknownRole; they are rejected at load time, never
// silently admitted at request time.
func ParseRole(name string) (Role, error) {
	for r := RoleAdmin; r < roleCount; r++ {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Roles returns all valid roles in declaration order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleInstructor, RoleStudent, RoleStaff}
}
