// Package apperr defines the typed error kinds the use cases return. The HTTP
// boundary maps kinds to status codes; the core never deals in status codes.
package apperr

import "errors"

// Kind classifies a domain error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: the requested resource does not exist.
	KindNotFound
	// KindDuplicate: a domain-level unique constraint was violated.
	KindDuplicate
	// KindUnauthorized: missing, invalid, expired, or revoked credential.
	KindUnauthorized
	// KindForbidden: authenticated but not permitted.
	KindForbidden
	// KindInvalid: the input failed validation.
	KindInvalid
)

// Error is a typed domain error. It propagates unchanged from the use case to
// the boundary.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

// Is makes two apperr errors equal when kind and message match, so sentinel
// errors declared with these constructors work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.kind == t.kind && e.msg == t.msg
}

// NotFound returns a not-found error with the given message.
func NotFound(msg string) *Error { return &Error{kind: KindNotFound, msg: msg} }

// Duplicate returns a duplicate error with the given message.
func Duplicate(msg string) *Error { return &Error{kind: KindDuplicate, msg: msg} }

// Unauthorized returns an unauthorized error with the given message.
func Unauthorized(msg string) *Error { return &Error{kind: KindUnauthorized, msg: msg} }

// Forbidden returns a forbidden error with the given message.
func Forbidden(msg string) *Error { return &Error{kind: KindForbidden, msg: msg} }

// Invalid returns a validation error with the given message.
func Invalid(msg string) *Error { return &Error{kind: KindInvalid, msg: msg} }

// KindOf returns the kind of err, or KindUnknown for errors that did not come
// out of this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}
