package session

import (
	"errors"
	"fmt"

	identity "store-sync/internal/domain/identity"
)

var (
	ErrEmailInUse       = errors.New("email already registered")
	ErrInvalidEmail     = errors.New("malformed email address")
	ErrWeakPassword     = errors.New("password does not meet minimum requirements")
	ErrAccountDisabled  = errors.New("account disabled")
	ErrAccountNotFound  = errors.New("no account for email")
	ErrWrongCredential  = errors.New("wrong email or password")
	ErrRateLimited      = errors.New("too many attempts, try again later")
	ErrEmailNotVerified = errors.New("email address not verified")
	ErrUnauthenticated  = errors.New("no active session")
	ErrProfileNotFound  = errors.New("no stored profile for target")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")

	// ErrProviderFailure is the generic fallback; the provider's raw
	// detail stays on the chain for diagnostics.
	ErrProviderFailure = errors.New("identity provider failure")
)

// mapProviderError folds provider codes into the service's stable
// failure taxonomy. Unknown codes keep the original detail attached.
func mapProviderError(err error) error {
	if err == nil {
		return nil
	}
	switch identity.CodeOf(err) {
	case identity.CodeEmailInUse:
		return ErrEmailInUse
	case identity.CodeInvalidEmail:
		return ErrInvalidEmail
	case identity.CodeWeakPassword:
		return ErrWeakPassword
	case identity.CodeUserDisabled:
		return ErrAccountDisabled
	case identity.CodeUserNotFound:
		return ErrAccountNotFound
	case identity.CodeWrongPassword:
		return ErrWrongCredential
	case identity.CodeTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
}
