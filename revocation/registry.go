package revocation

import (
	"context"
	"time"
)

// Revocation reasons recorded alongside entries.
const (
	ReasonLogout        = "logout"
	ReasonReuseDetected = "reuse_detected"
	ReasonAdmin         = "admin_revoked"
)

// Registry is the jti blocklist consulted on every token validation.
// Implementations must make Contains an O(1) lookup and must never return
// true for an entry whose ttl has elapsed.
type Registry interface {
	// Add inserts jti with the given reason. The entry stays visible to
	// Contains for at most ttl; a non-positive ttl is a no-op because
	// the token is already past its natural expiry.
	Add(ctx context.Context, jti, reason string, ttl time.Duration) error
	// Contains reports whether jti is currently revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}
