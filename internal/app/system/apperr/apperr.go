// Package apperr defines the error kinds surfaced to callers.
//
// Every error carries a short user-facing Message in Spanish and, where one
// exists, the underlying cause. Handlers only ever show Message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindCredential    Kind = "credential"
	KindConfiguration Kind = "configuration"
	KindUpload        Kind = "upload"
	KindSession       Kind = "session"
	KindStore         Kind = "store"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
)

// Error is the single error type returned by services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.Validation("")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

func Validation(msg string) *Error                 { return newErr(KindValidation, msg, nil) }
func Credential(msg string, cause error) *Error    { return newErr(KindCredential, msg, cause) }
func Configuration(msg string, cause error) *Error { return newErr(KindConfiguration, msg, cause) }
func Upload(msg string, cause error) *Error        { return newErr(KindUpload, msg, cause) }
func Session(msg string, cause error) *Error       { return newErr(KindSession, msg, cause) }
func Store(msg string, cause error) *Error         { return newErr(KindStore, msg, cause) }
func NotFound(msg string) *Error                   { return newErr(KindNotFound, msg, nil) }
func Conflict(msg string) *Error                   { return newErr(KindConflict, msg, nil) }

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// MessageOf returns the user-facing message for err, or fallback when err
// carries none.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
