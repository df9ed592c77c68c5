package permission

import (
	"fmt"
	"sort"
)

// Wildcard matches any required permission. It is granted to RoleAdmin in
// the default grant table.
const Wildcard = "*"

// Permission names used by the platform services.
const (
	PermReadUsers      = "read:users"
	PermWriteUsers     = "write:users"
	PermDeleteUsers    = "delete:users"
	PermReadAuditLogs  = "read:audit_logs"
	PermReadFinances   = "read:finances"
	PermWriteFinances  = "write:finances"
	PermReadStudents   = "read:students"
	PermWriteStudents  = "write:students"
	PermReadCurricula  = "read:curriculum"
	PermWriteCurricula = "write:curriculum"
	PermReadGrades     = "read:grades"
	PermReadProfile    = "read:profile"
	PermWriteProfile   = "write:profile"
	PermReadAll        = "read:all"
	PermWriteFinance   = "write:finance"
	PermWriteStaff     = "write:staff"
)

// DefaultGrants returns the platform's built-in role-to-permission table.
// Callers may pass a modified copy to NewResolver; the resolver never
// mutates it.
func DefaultGrants() map[Role][]string {
	return map[Role][]string{
		RoleAdmin: {
			Wildcard,
			PermReadUsers,
			PermWriteUsers,
			PermDeleteUsers,
			PermReadAuditLogs,
			PermReadFinances,
			PermWriteFinances,
		},
		RoleInstructor: {
			PermReadStudents,
			PermWriteStudents,
			PermReadCurricula,
			PermWriteCurricula,
			PermReadGrades,
		},
		RoleStudent: {
			PermReadProfile,
			PermWriteProfile,
			PermReadGrades,
			PermReadCurricula,
		},
		RoleStaff: {
			PermReadAll,
			PermWriteFinance,
			PermWriteStaff,
		},
	}
}

// Resolver answers authorization queries against a grant table that is
// validated once and immutable afterwards.
type Resolver struct {
	grants [roleCount]map[string]struct{}
}

// NewResolver validates and freezes a grant table. It fails when the table
// grants to a role outside the closed set, when a valid role is missing from
// the table, when a grant set is empty, or when a permission name is blank.
// Rejecting a bad table here means request-time lookups can never observe a
// half-configured resolver.
func NewResolver(grants map[Role][]string) (*Resolver, error) {
	r := &Resolver{}
	for role, perms := range grants {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: grant table entry %d", ErrUnknownRole, uint8(role))
		}
		if len(perms) == 0 {
			return nil, fmt.Errorf("role %s has an empty permission set", role)
		}
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			if p == "" {
				return nil, fmt.Errorf("role %s grants an empty permission name", role)
			}
			set[p] = struct{}{}
		}
		r.grants[role] = set
	}
	for _, role := range Roles() {
		if r.grants[role] == nil {
			return nil, fmt.Errorf("role %s missing from grant table", role)
		}
	}
	return r, nil
}

// PermissionsFor returns the permission names granted to role, sorted.
// Unknown roles return nil.
func (r *Resolver) PermissionsFor(role Role) []string {
	if !role.Valid() {
		return nil
	}
	set := r.grants[role]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Authorize reports whether role holds the required permission, either
// directly or through the wildcard. A false result is an authorization
// failure, not an error; callers surface it as their Forbidden outcome.
func (r *Resolver) Authorize(role Role, required string) bool {
	if !role.Valid() || required == "" {
		return false
	}
	set := r.grants[role]
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok := set[required]
	return ok
}

// Known reports whether the permission name appears anywhere in the grant
// table. Useful for rejecting typoed permission names at service start.
func (r *Resolver) Known(permission string) bool {
	for _, role := range Roles() {
		if _, ok := r.grants[role][permission]; ok {
			return true
		}
	}
	return false
}
