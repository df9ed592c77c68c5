package aaa

import (
	"errors"

	"github.com/campuscore/aaa/audit"
	"github.com/campuscore/aaa/credential"
	"github.com/campuscore/aaa/permission"
	"github.com/campuscore/aaa/token"
)

// Sentinel errors returned by Engine operations. Store-level sentinels are
// re-exported here so callers match everything with errors.Is against one
// package.
var (
	// ErrInvalidCredentials covers unknown email and wrong password,
	// indistinguishably.
	ErrInvalidCredentials = credential.ErrInvalidCredentials
	// ErrUserDisabled is returned when the account is soft-deleted.
	ErrUserDisabled = credential.ErrUserDisabled
	// ErrDuplicateUser is returned by Register for a taken email.
	ErrDuplicateUser = credential.ErrDuplicateUser
	// ErrUserNotFound is returned by id-based lookups.
	ErrUserNotFound = credential.ErrUserNotFound
	// ErrUnknownRole is returned for role names or values outside the
	// closed set.
	ErrUnknownRole = permission.ErrUnknownRole
	// ErrTokenExpired is returned for structurally valid tokens past
	// expiry.
	ErrTokenExpired = token.ErrExpired
	// ErrTokenMalformed is returned for tokens that fail structural or
	// signature verification.
	ErrTokenMalformed = token.ErrMalformed
	// ErrTokenRevoked is returned when the jti is in the revocation
	// registry. Terminal for that token.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenConsumed is returned when a refresh token was already
	// spent by a successful rotation. Consumed is not revoked: the flag
	// blocks only this token, not its family.
	ErrTokenConsumed = errors.New("refresh token already consumed")
	// ErrRefreshReuse is returned when a consumed refresh token is
	// presented to Refresh. The whole family has been revoked by the
	// time the caller sees this.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrPermissionDenied is the authorization failure for privileged
	// engine operations such as the audit query.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrLedgerClosed reports audit storage shutdown, a distinct
	// operational failure rather than an authorization outcome.
	ErrLedgerClosed = audit.ErrLedgerClosed
	// ErrStoreUnavailable reports a backing store I/O failure.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineNotReady is returned when an Engine is used before
	// Builder.Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)
