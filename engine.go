package aaa

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuscore/aaa/audit"
	"github.com/campuscore/aaa/credential"
	"github.com/campuscore/aaa/family"
	"github.com/campuscore/aaa/internal/flows"
	"github.com/campuscore/aaa/internal/ids"
	"github.com/campuscore/aaa/internal/metrics"
	"github.com/campuscore/aaa/password"
	"github.com/campuscore/aaa/permission"
	"github.com/campuscore/aaa/revocation"
	"github.com/campuscore/aaa/token"
)

// Engine is the platform's authentication, authorization, and accounting
// core. Construct one through Builder.Build; a zero Engine is not usable.
// All methods are safe for concurrent use.
type Engine struct {
	config      Config
	codec       *token.Codec
	hasher      *password.Hasher
	resolver    *permission.Resolver
	credentials credential.Store
	registry    revocation.Registry
	families    family.Store
	ledger      *audit.Ledger
	dispatcher  *audit.Dispatcher
	metrics     *metrics.Metrics
	logger      *zerolog.Logger
	closers     []func()
}

func (e *Engine) ready() error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	return nil
}

// Register creates an account. The email must be unused; the role must be
// one of the closed set. The raw password is hashed before it touches the
// store and never appears in audit records or logs.
func (e *Engine) Register(ctx context.Context, email, pass string, role Role) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: %d", ErrUnknownRole, role)
	}

	user, err := e.credentials.Register(ctx, email, pass, role)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			e.metrics.Inc(metrics.MetricRegisterDuplicate)
			e.record(audit.Record{
				Action:   ActionRegister,
				Resource: "user",
				Outcome:  audit.OutcomeFailure,
				Detail:   map[string]string{"reason": "duplicate_email"},
			})
		}
		return User{}, err
	}

	e.metrics.Inc(metrics.MetricRegisterSuccess)
	e.record(audit.Record{
		Actor:    user.ID,
		Action:   ActionRegister,
		Resource: "user",
		Outcome:  audit.OutcomeSuccess,
		Detail:   map[string]string{"role": role.String()},
	})
	e.logger.Info().Str("user_id", user.ID).Str("role", role.String()).Msg("user registered")
	return user, nil
}

// Login authenticates and issues a fresh token pair opening a new rotation
// family. Unknown email and wrong password both fail with
// ErrInvalidCredentials; a disabled account with a correct password fails
// with ErrUserDisabled. Every attempt appends exactly one audit record
// before this method returns.
func (e *Engine) Login(ctx context.Context, email, pass string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	res := flows.RunLogin(ctx, email, pass, flows.LoginDeps{
		Verify: func(ctx context.Context, email, pass string) (string, string, error) {
			user, err := e.credentials.Verify(ctx, email, pass)
			if err != nil {
				return user.ID, "", err
			}
			return user.ID, user.Role.String(), nil
		},
		IsDisabled: func(err error) bool {
			return errors.Is(err, ErrUserDisabled)
		},
		NewFamilyID: ids.NewFamily,
		IssuePair:   e.issuePair,
	})

	switch res.Failure {
	case flows.LoginFailureNone:
		e.metrics.Inc(metrics.MetricLoginSuccess)
		e.record(audit.Record{
			Actor:    res.UserID,
			Action:   ActionLogin,
			Resource: "session",
			Outcome:  audit.OutcomeSuccess,
			Detail:   map[string]string{"family_id": res.FamilyID},
		})
		return pairOf(res.Pair), nil
	case flows.LoginFailureDisabled:
		e.metrics.Inc(metrics.MetricLoginFailure)
		e.record(audit.Record{
			Actor:    res.UserID,
			Action:   ActionLogin,
			Resource: "session",
			Outcome:  audit.OutcomeFailure,
			Detail:   map[string]string{"reason": "user_disabled"},
		})
		return TokenPair{}, ErrUserDisabled
	case flows.LoginFailureIssue:
		e.metrics.Inc(metrics.MetricLoginFailure)
		e.record(audit.Record{
			Actor:    res.UserID,
			Action:   ActionLogin,
			Resource: "session",
			Outcome:  audit.OutcomeFailure,
			Detail:   map[string]string{"reason": "issue_failed"},
		})
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	default:
		e.metrics.Inc(metrics.MetricLoginFailure)
		e.record(audit.Record{
			Action:   ActionLogin,
			Resource: "session",
			Outcome:  audit.OutcomeFailure,
			Detail:   map[string]string{"reason": "invalid_credentials"},
		})
		return TokenPair{}, ErrInvalidCredentials
	}
}

// Validate verifies a token and returns its claims. A valid token is
// structurally sound, unexpired, not revoked, and, for refresh tokens, not
// yet consumed. Validate is strictly read-only: it writes no state and
// appends no audit records, so it stays cheap on the request hot path.
func (e *Engine) Validate(ctx context.Context, raw string) (*Claims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()

	claims, err := e.codec.Parse(raw)
	if err != nil {
		e.metrics.Inc(metrics.MetricValidateFailure)
		return nil, err
	}

	revoked, err := e.registry.Contains(ctx, claims.ID)
	if err != nil {
		e.metrics.Inc(metrics.MetricValidateFailure)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if revoked {
		e.metrics.Inc(metrics.MetricValidateFailure)
		return nil, ErrTokenRevoked
	}

	if claims.TokenType == token.TypeRefresh {
		consumed, err := e.families.IsConsumed(ctx, claims.ID)
		if err != nil {
			e.metrics.Inc(metrics.MetricValidateFailure)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if consumed {
			e.metrics.Inc(metrics.MetricValidateFailure)
			return nil, ErrTokenConsumed
		}
	}

	e.metrics.Inc(metrics.MetricValidateSuccess)
	e.metrics.Observe(metrics.MetricValidateLatency, time.Since(start))
	return claims, nil
}

// Authorize validates an access token and checks that its role grants the
// required permission. Permissions are deny-by-default: an unknown
// permission name denies for every role except admin, whose wildcard grants
// everything. Denials are audited; granted checks are not.
func (e *Engine) Authorize(ctx context.Context, raw, required string) (*Claims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != token.TypeAccess {
		return nil, fmt.Errorf("%w: authorization requires an access token", ErrTokenMalformed)
	}

	role, err := permission.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}
	if !e.resolver.Authorize(role, required) {
		e.metrics.Inc(metrics.MetricAuthorizeDenied)
		e.record(audit.Record{
			Actor:    claims.Subject,
			Action:   ActionAuthorize,
			Resource: required,
			Outcome:  audit.OutcomeFailure,
			Detail:   map[string]string{"role": claims.Role},
		})
		return nil, fmt.Errorf("%w: role %s lacks %s", ErrPermissionDenied, claims.Role, required)
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented token is atomically
// consumed and a replacement pair is issued under the same family. A
// consumed token presented again is treated as theft evidence: the whole
// family is revoked, a critical audit record is appended, and the call
// fails with ErrRefreshReuse. Of two concurrent rotations of the same token
// exactly one succeeds.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	res := flows.RunRefresh(ctx, refreshToken, flows.RefreshDeps{
		Parse:     e.codec.Parse,
		IsRevoked: e.registry.Contains,
		Consume: func(ctx context.Context, claims *token.Claims) (bool, error) {
			return e.families.Consume(ctx, claims.ID, claims.ExpiresIn())
		},
		RevokeFamily: func(ctx context.Context, familyID string) (int, error) {
			return e.revokeFamilyMembers(ctx, familyID, revocation.ReasonReuseDetected)
		},
		LoadUser: func(ctx context.Context, userID string) (string, bool, error) {
			user, err := e.credentials.GetByID(ctx, userID)
			if err != nil {
				return "", false, err
			}
			return user.Role.String(), user.Disabled(), nil
		},
		IssuePair: e.issuePair,
	})

	if res.Failure == flows.RefreshFailureNone {
		e.metrics.Inc(metrics.MetricRefreshSuccess)
		e.record(audit.Record{
			Actor:    res.Presented.Subject,
			Action:   ActionTokenRefresh,
			Resource: "session",
			Outcome:  audit.OutcomeSuccess,
			Detail:   map[string]string{"family_id": res.Presented.FamilyID},
		})
		return pairOf(res.Pair), nil
	}

	if res.Failure == flows.RefreshFailureReuse {
		e.metrics.Inc(metrics.MetricRefreshReuseDetected)
		e.record(audit.Record{
			Actor:    res.Presented.Subject,
			Action:   ActionReuseDetected,
			Resource: "session",
			Outcome:  audit.OutcomeFailure,
			Severity: audit.SeverityCritical,
			Detail: map[string]string{
				"family_id":      res.Presented.FamilyID,
				"family_revoked": strconv.Itoa(res.FamilyRevoked),
			},
		})
		e.logger.Warn().
			Str("user_id", res.Presented.Subject).
			Str("family_id", res.Presented.FamilyID).
			Int("family_revoked", res.FamilyRevoked).
			Msg("refresh token reuse detected, family revoked")
		if res.Err != nil {
			return TokenPair{}, fmt.Errorf("%w: family revocation incomplete: %v", ErrRefreshReuse, res.Err)
		}
		return TokenPair{}, ErrRefreshReuse
	}

	e.metrics.Inc(metrics.MetricRefreshFailure)
	rec := audit.Record{
		Action:   ActionTokenRefresh,
		Resource: "session",
		Outcome:  audit.OutcomeFailure,
		Detail:   map[string]string{"reason": refreshFailureReason(res.Failure)},
	}
	if res.Presented != nil {
		rec.Actor = res.Presented.Subject
	}
	e.record(rec)
	return TokenPair{}, refreshFailureError(res)
}

func refreshFailureReason(kind flows.RefreshFailureKind) string {
	switch kind {
	case flows.RefreshFailureExpired:
		return "expired"
	case flows.RefreshFailureRevoked:
		return "revoked"
	case flows.RefreshFailureConsultStore:
		return "store_unavailable"
	case flows.RefreshFailureUserGone:
		return "user_not_found"
	case flows.RefreshFailureUserDisabled:
		return "user_disabled"
	case flows.RefreshFailureIssue:
		return "issue_failed"
	default:
		return "malformed"
	}
}

func refreshFailureError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureExpired:
		return ErrTokenExpired
	case flows.RefreshFailureRevoked:
		return ErrTokenRevoked
	case flows.RefreshFailureConsultStore, flows.RefreshFailureIssue:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	case flows.RefreshFailureUserGone:
		return ErrUserNotFound
	case flows.RefreshFailureUserDisabled:
		return ErrUserDisabled
	default:
		if res.Err != nil && errors.Is(res.Err, ErrTokenMalformed) {
			return res.Err
		}
		return fmt.Errorf("%w: %v", ErrTokenMalformed, res.Err)
	}
}

// Revoke invalidates a single token before its natural expiry, the logout
// path. The token must still parse and verify; revoking it again is a
// no-op. Revocation is terminal and registry-wide: every validation of the
// jti fails from here on.
func (e *Engine) Revoke(ctx context.Context, raw string) error {
	if err := e.ready(); err != nil {
		return err
	}

	claims, err := e.codec.Parse(raw)
	if err != nil {
		return err
	}
	if err := e.registry.Add(ctx, claims.ID, revocation.ReasonLogout, claims.ExpiresIn()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricTokenRevoked)
	e.record(audit.Record{
		Actor:    claims.Subject,
		Action:   ActionTokenRevoked,
		Resource: "token",
		Outcome:  audit.OutcomeSuccess,
		Detail: map[string]string{
			"jti":       claims.ID,
			"reason":    revocation.ReasonLogout,
			"token_typ": string(claims.TokenType),
		},
	})
	return nil
}

// RevokeFamily revokes every live member of a rotation family, the
// administrative kill switch for a compromised session lineage. It returns
// how many tokens were revoked.
func (e *Engine) RevokeFamily(ctx context.Context, actor, familyID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}

	n, err := e.revokeFamilyMembers(ctx, familyID, revocation.ReasonAdmin)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.record(audit.Record{
		Actor:    actor,
		Action:   ActionTokenRevoked,
		Resource: "family",
		Outcome:  audit.OutcomeSuccess,
		Detail: map[string]string{
			"family_id": familyID,
			"reason":    revocation.ReasonAdmin,
			"revoked":   strconv.Itoa(n),
		},
	})
	return n, nil
}

// AssignRole changes an account's role. The change takes effect on tokens
// minted afterwards; outstanding access tokens keep their embedded role
// until they expire or the family is revoked.
func (e *Engine) AssignRole(ctx context.Context, actor, userID string, role Role) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: %d", ErrUnknownRole, role)
	}

	before, err := e.credentials.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	user, err := e.credentials.SetRole(ctx, userID, role)
	if err != nil {
		return User{}, err
	}

	e.metrics.Inc(metrics.MetricRoleChange)
	e.record(audit.Record{
		Actor:    actor,
		Action:   ActionRoleChange,
		Resource: "user:" + userID,
		Outcome:  audit.OutcomeSuccess,
		Detail: map[string]string{
			"old_role": before.Role.String(),
			"new_role": role.String(),
		},
	})
	return user, nil
}

// DisableUser soft-deletes an account. Disabled users fail Login and
// Refresh; their outstanding access tokens stay valid until expiry unless
// revoked.
func (e *Engine) DisableUser(ctx context.Context, actor, userID string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}

	user, err := e.credentials.SetStatus(ctx, userID, credential.StatusDisabled)
	if err != nil {
		return User{}, err
	}

	e.metrics.Inc(metrics.MetricUserDisabled)
	e.record(audit.Record{
		Actor:    actor,
		Action:   ActionUserDisabled,
		Resource: "user:" + userID,
		Outcome:  audit.OutcomeSuccess,
	})
	return user, nil
}

// KnownPermission reports whether the grant table mentions the permission
// name anywhere. Services validate their guard constants against it at
// startup; a typoed name would otherwise deny everyone except admin, whose
// wildcard would hide the mistake.
func (e *Engine) KnownPermission(perm string) bool {
	if e == nil || e.resolver == nil {
		return false
	}
	return e.resolver.Known(perm)
}

// ListUsers returns every account, ordered by creation time. The engine
// does not gate the call; callers expose it behind a user-read
// authorization.
func (e *Engine) ListUsers(ctx context.Context) ([]User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.credentials.List(ctx)
}

// PermissionsOf returns the sorted effective permission list for a user.
func (e *Engine) PermissionsOf(ctx context.Context, userID string) ([]string, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	user, err := e.credentials.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.resolver.PermissionsFor(user.Role), nil
}

// AuditQuery returns ledger records matching the filter, ascending by id.
// The call is privileged: the bearer token must carry the audit-read
// permission, which by default only the admin wildcard grants.
func (e *Engine) AuditQuery(ctx context.Context, raw string, f AuditFilter) ([]AuditRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.Authorize(ctx, raw, permission.PermReadAuditLogs); err != nil {
		return nil, err
	}
	return e.ledger.Query(f), nil
}

// AuditLen reports how many records the ledger currently retains.
func (e *Engine) AuditLen() int {
	if e == nil || e.ledger == nil {
		return 0
	}
	return e.ledger.Len()
}

// Close stops the audit dispatcher, closes the ledger, and stops the
// in-memory sweepers. Operations after Close fail.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
	if e.ledger != nil {
		e.ledger.Close()
	}
	for _, closeFn := range e.closers {
		closeFn()
	}
}

// issuePair signs an access and a refresh token sharing the family and
// registers both as members, so a family revocation reaches the access
// token too.
func (e *Engine) issuePair(ctx context.Context, userID, role, familyID string) (flows.Pair, error) {
	access, accessClaims, err := e.codec.Sign(userID, role, familyID, token.TypeAccess)
	if err != nil {
		return flows.Pair{}, err
	}
	refresh, refreshClaims, err := e.codec.Sign(userID, role, familyID, token.TypeRefresh)
	if err != nil {
		return flows.Pair{}, err
	}

	if err := e.families.AddMember(ctx, familyID, family.Member{
		JTI:       accessClaims.ID,
		ExpiresAt: accessClaims.ExpiresAt.Time,
	}); err != nil {
		return flows.Pair{}, err
	}
	if err := e.families.AddMember(ctx, familyID, family.Member{
		JTI:       refreshClaims.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}); err != nil {
		return flows.Pair{}, err
	}

	return flows.Pair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}, nil
}

// revokeFamilyMembers adds every unexpired member to the revocation
// registry. Partial failure returns the count revoked so far with the
// error.
func (e *Engine) revokeFamilyMembers(ctx context.Context, familyID, reason string) (int, error) {
	members, err := e.families.Members(ctx, familyID)
	if err != nil {
		return 0, err
	}
	revoked := 0
	for _, m := range members {
		ttl := time.Until(m.ExpiresAt)
		if ttl <= 0 {
			continue
		}
		if err := e.registry.Add(ctx, m.JTI, reason, ttl); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

func pairOf(p flows.Pair) TokenPair {
	return TokenPair{
		AccessToken:   p.AccessToken,
		RefreshToken:  p.RefreshToken,
		AccessClaims:  p.AccessClaims,
		RefreshClaims: p.RefreshClaims,
	}
}
