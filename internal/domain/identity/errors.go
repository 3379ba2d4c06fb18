package identity

import "errors"

// Code classifies provider failures the way the remote backend reports
// them. The session service maps codes onto its own failure taxonomy.
type Code string

const (
	CodeEmailInUse      Code = "email-in-use"
	CodeInvalidEmail    Code = "invalid-email"
	CodeWeakPassword    Code = "weak-password"
	CodeUserDisabled    Code = "user-disabled"
	CodeUserNotFound    Code = "user-not-found"
	CodeWrongPassword   Code = "wrong-password"
	CodeTooManyRequests Code = "too-many-requests"
	CodeUnknown         Code = "unknown"
)

// Error is a provider failure with its backend classification. Detail
// keeps the raw provider message for diagnostics; it is never shown to
// users except folded into the generic fallback.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return string(e.Code) + ": " + e.Detail
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(code Code, detail string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Cause: cause}
}

// CodeOf extracts the provider code from an error chain, or CodeUnknown.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}
