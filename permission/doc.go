// Package permission implements the authorization half of the AAA core: a
// closed role enumeration and an immutable role-to-permission resolver.
//
// The resolver is constructed once at engine build time from a grant table,
// validated (unknown roles and empty grant sets are rejected), and frozen.
// After that every call is a read-only map lookup, safe for unbounded
// concurrent use. Authorization is deny-by-default: a role without an
// explicit grant for the required permission is refused, and an unknown role
// holds no permissions at all.
package permission
