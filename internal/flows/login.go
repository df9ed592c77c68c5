package flows

import (
	"context"

	"github.com/campuscore/aaa/token"
)

// Pair carries an issued access/refresh pair with its decoded claims.
type Pair struct {
	AccessToken   string
	RefreshToken  string
	AccessClaims  *token.Claims
	RefreshClaims *token.Claims
}

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureCredentials
	LoginFailureDisabled
	LoginFailureIssue
)

// LoginResult carries either the issued pair or failure metadata. UserID is
// set whenever the account was identified, so the audit record can name the
// actor even on a refused login.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	UserID   string
	Role     string
	FamilyID string
	Pair     Pair
}

// LoginDeps captures the login flow dependencies.
type LoginDeps struct {
	// Verify authenticates the credentials and returns the account's id
	// and role name.
	Verify func(ctx context.Context, email, password string) (userID, role string, err error)
	// IsDisabled reports whether err means the account is disabled.
	IsDisabled func(err error) bool
	// NewFamilyID mints the family id for this login.
	NewFamilyID func() string
	// IssuePair signs a fresh pair and records both jtis as family
	// members.
	IssuePair func(ctx context.Context, userID, role, familyID string) (Pair, error)
}

// RunLogin authenticates and issues the first pair of a new token family.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	userID, role, err := deps.Verify(ctx, email, password)
	if err != nil {
		if deps.IsDisabled(err) {
			return LoginResult{
				Failure: LoginFailureDisabled,
				Err:     err,
				UserID:  userID,
			}
		}
		return LoginResult{
			Failure: LoginFailureCredentials,
			Err:     err,
		}
	}

	familyID := deps.NewFamilyID()
	pair, err := deps.IssuePair(ctx, userID, role, familyID)
	if err != nil {
		return LoginResult{
			Failure:  LoginFailureIssue,
			Err:      err,
			UserID:   userID,
			Role:     role,
			FamilyID: familyID,
		}
	}

	return LoginResult{
		UserID:   userID,
		Role:     role,
		FamilyID: familyID,
		Pair:     pair,
	}
}
