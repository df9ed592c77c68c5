package aaa

import (
	"github.com/campuscore/aaa/audit"
	"github.com/campuscore/aaa/credential"
	"github.com/campuscore/aaa/password"
	"github.com/campuscore/aaa/permission"
	"github.com/campuscore/aaa/token"
)

// Re-exports so most callers only import the root package.
type (
	// Role is one of the platform's closed role set.
	Role = permission.Role
	// Claims is the verified payload of a token.
	Claims = token.Claims
	// User is a credential-store account record.
	User = credential.User
	// AuditRecord is one immutable ledger entry.
	AuditRecord = audit.Record
	// AuditFilter selects ledger records for a query.
	AuditFilter = audit.Filter
	// AuditSink receives ledger overflow and mirrored records.
	AuditSink = audit.Sink
	// TokenConfig holds signing keys and lifetimes.
	TokenConfig = token.Config
	// PasswordConfig holds the Argon2id cost parameters.
	PasswordConfig = password.Config
)

// Role values.
const (
	RoleAdmin      = permission.RoleAdmin
	RoleInstructor = permission.RoleInstructor
	RoleStudent    = permission.RoleStudent
	RoleStaff      = permission.RoleStaff
)

// Signing methods.
const (
	MethodEd25519 = token.MethodEd25519
	MethodHS256   = token.MethodHS256
)

// TokenPair is the result of Login and Refresh: one access token and one
// refresh token minted together, sharing a family id.
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessClaims  *Claims
	RefreshClaims *Claims
}

// FamilyID returns the rotation-family id shared by both tokens.
func (p TokenPair) FamilyID() string {
	if p.AccessClaims == nil {
		return ""
	}
	return p.AccessClaims.FamilyID
}
