package credential

import (
	"context"
	"errors"
	"time"

	"github.com/campuscore/aaa/permission"
)

// Status is the lifecycle state of an account.
type Status uint8

const (
	// StatusActive accounts may authenticate.
	StatusActive Status = iota
	// StatusDisabled accounts fail verification with ErrUserDisabled.
	// Disable is the platform's soft delete.
	StatusDisabled
)

// String returns "active" or "disabled".
func (s Status) String() string {
	if s == StatusDisabled {
		return "disabled"
	}
	return "active"
}

var (
	// ErrDuplicateUser is returned by Register when the email is taken.
	ErrDuplicateUser = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong
	// password, indistinguishably.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserDisabled is returned by Verify for disabled accounts.
	ErrUserDisabled = errors.New("user disabled")
	// ErrUserNotFound is returned by id-based lookups and mutations.
	ErrUserNotFound = errors.New("user not found")
)

// User is an identity record. PasswordHash is PHC-encoded; the raw password
// never leaves the call stack of Register and Verify.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         permission.Role
	Status       Status
	CreatedAt    time.Time
}

// Disabled reports whether the account is soft-deleted.
func (u User) Disabled() bool {
	return u.Status == StatusDisabled
}

// Store is the credential interface the token service authenticates
// against. Implementations must be safe for concurrent use.
type Store interface {
	// Register creates an account with a hashed password. Fails with
	// ErrDuplicateUser when the email is already registered.
	Register(ctx context.Context, email, password string, role permission.Role) (User, error)
	// Verify authenticates email+password. Unknown email and wrong
	// password both fail with ErrInvalidCredentials; a disabled account
	// with a correct password fails with ErrUserDisabled, returning the
	// user record so the caller can attribute the refusal. Verify emits
	// no audit records itself; the caller owns the login transaction.
	Verify(ctx context.Context, email, password string) (User, error)
	// GetByID returns the account or ErrUserNotFound.
	GetByID(ctx context.Context, id string) (User, error)
	// List returns every account, disabled ones included, ordered by
	// creation time.
	List(ctx context.Context) ([]User, error)
	// SetRole changes the account's role.
	SetRole(ctx context.Context, id string, role permission.Role) (User, error)
	// SetStatus enables or disables the account.
	SetStatus(ctx context.Context, id string, status Status) (User, error)
}
