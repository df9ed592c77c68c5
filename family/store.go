package family

import (
	"context"
	"time"
)

// Member is one token within a family.
type Member struct {
	JTI       string
	ExpiresAt time.Time
}

// Store records family membership and refresh-token consumption.
type Store interface {
	// AddMember appends a token to a family, creating the family on
	// first use. Membership expires with the member's token.
	AddMember(ctx context.Context, familyID string, member Member) error
	// Members returns the family's unexpired members. Unknown families
	// return an empty slice; membership of an expired token may or may
	// not still be visible.
	Members(ctx context.Context, familyID string) ([]Member, error)
	// Consume marks a refresh jti as spent. It returns true exactly
	// once per jti; every later call returns false. The flag stays for
	// ttl, after which the token is expired and reuse is moot.
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	// IsConsumed reports whether the jti has been spent, without
	// writing anything.
	IsConsumed(ctx context.Context, jti string) (bool, error)
}
