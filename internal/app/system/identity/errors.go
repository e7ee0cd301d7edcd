package identity

import (
	"errors"
	"fmt"
)

// Error codes reported by the provider. They follow the
// "auth/<reason>" convention that clients already map to messages.
const (
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInvalidAPIKey     = "auth/invalid-api-key"
	CodeTokenExpired      = "auth/id-token-expired"
	CodeTokenRevoked      = "auth/id-token-revoked"
	CodeUserDisabled      = "auth/user-disabled"
	CodeInternal          = "auth/internal-error"
)

// Error is a coded failure from the identity provider.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func codedErr(code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// CodeOf returns the provider code carried by err, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
