package flows

import (
	"context"
	"errors"

	"github.com/campuscore/aaa/token"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMalformed
	RefreshFailureExpired
	RefreshFailureRevoked
	RefreshFailureConsultStore
	RefreshFailureReuse
	RefreshFailureUserGone
	RefreshFailureUserDisabled
	RefreshFailureIssue
)

// RefreshResult carries either the rotated pair or failure metadata.
// Presented holds the decoded claims of the incoming refresh token whenever
// it parsed, including on failure, so callers can attribute the audit
// record.
type RefreshResult struct {
	Failure       RefreshFailureKind
	Err           error
	Presented     *token.Claims
	FamilyRevoked int
	Pair          Pair
}

// RefreshDeps captures the refresh flow dependencies.
type RefreshDeps struct {
	// Parse verifies the presented token's signature and expiry.
	Parse func(raw string) (*token.Claims, error)
	// IsRevoked consults the revocation registry.
	IsRevoked func(ctx context.Context, jti string) (bool, error)
	// Consume atomically spends the refresh jti. False without error
	// means the token was already spent: reuse.
	Consume func(ctx context.Context, claims *token.Claims) (bool, error)
	// RevokeFamily revokes every live member of the family as stolen and
	// returns how many it touched.
	RevokeFamily func(ctx context.Context, familyID string) (int, error)
	// LoadUser fetches the subject's current role and status; role
	// changes and disables take effect at the next rotation.
	LoadUser func(ctx context.Context, userID string) (role string, disabled bool, err error)
	// IssuePair signs the replacement pair under the same family.
	IssuePair func(ctx context.Context, userID, role, familyID string) (Pair, error)
}

// RunRefresh executes refresh rotation with single-use enforcement. The
// consume step is the atomic check-and-set: of two concurrent rotations of
// the same token exactly one reaches the issue step, the other observes
// reuse and takes the whole family down with it.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.Parse(refreshToken)
	if err != nil {
		kind := RefreshFailureMalformed
		if errors.Is(err, token.ErrExpired) {
			kind = RefreshFailureExpired
		}
		return RefreshResult{
			Failure: kind,
			Err:     err,
		}
	}
	if claims.TokenType != token.TypeRefresh {
		return RefreshResult{
			Failure:   RefreshFailureMalformed,
			Err:       errors.New("not a refresh token"),
			Presented: claims,
		}
	}

	revoked, err := deps.IsRevoked(ctx, claims.ID)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureConsultStore,
			Err:       err,
			Presented: claims,
		}
	}
	if revoked {
		return RefreshResult{
			Failure:   RefreshFailureRevoked,
			Err:       errors.New("refresh token revoked"),
			Presented: claims,
		}
	}

	fresh, err := deps.Consume(ctx, claims)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureConsultStore,
			Err:       err,
			Presented: claims,
		}
	}
	if !fresh {
		revokedCount, revokeErr := deps.RevokeFamily(ctx, claims.FamilyID)
		return RefreshResult{
			Failure:       RefreshFailureReuse,
			Err:           revokeErr,
			Presented:     claims,
			FamilyRevoked: revokedCount,
		}
	}

	role, disabled, err := deps.LoadUser(ctx, claims.Subject)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureUserGone,
			Err:       err,
			Presented: claims,
		}
	}
	if disabled {
		return RefreshResult{
			Failure:   RefreshFailureUserDisabled,
			Err:       errors.New("user disabled"),
			Presented: claims,
		}
	}

	pair, err := deps.IssuePair(ctx, claims.Subject, role, claims.FamilyID)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureIssue,
			Err:       err,
			Presented: claims,
		}
	}

	return RefreshResult{
		Presented: claims,
		Pair:      pair,
	}
}
