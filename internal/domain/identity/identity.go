package identity

import (
	"context"
	"errors"
	"time"
)

// Identity is the authenticated record held by the identity provider.
type Identity struct {
	ID            string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	Disabled      bool
}

// Session is a single authenticated session issued at sign-in. Operations
// that act on "the current session" take one explicitly instead of reading
// ambient provider state.
type Session struct {
	UserID    string
	Email     string
	SessionID string
	Token     string
}

// IdentityChanges is a partial update to the provider's own copy of the
// user-facing fields. Nil means leave unchanged.
type IdentityChanges struct {
	DisplayName *string
	PhotoURL    *string
}

// ErrNoSession is returned by Resolve when the token does not map to an
// active session.
var ErrNoSession = errors.New("no active session")

// Observer receives the authenticated identity after each auth change,
// or nil on sign-out.
type Observer func(ident *Identity)

// Provider wraps the remote authentication backend.
type Provider interface {
	Register(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, Session, error)
	SignOut(ctx context.Context, sess Session) error

	// SignOutUser invalidates every session held by the user. Used for
	// policy-driven forced sign-out (disabled accounts).
	SignOutUser(ctx context.Context, userID string) error

	Resolve(ctx context.Context, token string) (Identity, Session, error)
	UpdateIdentity(ctx context.Context, userID string, ch IdentityChanges) error
	SetDisabled(ctx context.Context, userID string, disabled bool) error
	ResetPassword(ctx context.Context, email string) error

	// Subscribe attaches an observer to the auth-change stream. The
	// returned cancel detaches it and is safe to call more than once.
	Subscribe(fn Observer) (cancel func())
}

// Credential is the provider-side account record.
type Credential struct {
	UserID        string
	Email         string
	PasswordHash  string
	DisplayName   string
	PhotoURL      string
	Disabled      bool
	EmailVerified bool
	CreatedAt     time.Time
}

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore persists provider account records.
type CredentialStore interface {
	Create(ctx context.Context, c Credential) error
	GetByID(ctx context.Context, userID string) (Credential, error)
	GetByEmail(ctx context.Context, email string) (Credential, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateFields(ctx context.Context, userID string, ch IdentityChanges) error
	SetDisabled(ctx context.Context, userID string, disabled bool) error
}

// SessionRegistry tracks active sessions so that tokens can be revoked
// before they expire.
type SessionRegistry interface {
	Add(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	Active(ctx context.Context, userID, sessionID string) (bool, error)
	Remove(ctx context.Context, userID, sessionID string) error
	RemoveAll(ctx context.Context, userID string) error
}
