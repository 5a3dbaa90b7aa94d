package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors carrying the same code, so clones and wraps of a
// predefined error satisfy errors.Is against it.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WrapAs wraps err with the code, status and message of a predefined error.
func WrapAs(base *Error, err error) *Error {
	return Wrap(err, base.Code, base.Status, base.Message)
}

// Predefined errors for common scenarios.
var (
	ErrValidation              = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidCredentials      = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrUnauthorized            = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrMissingToken            = New("MISSING_TOKEN", http.StatusUnauthorized, "no refresh token provided")
	ErrInvalidToken            = New("INVALID_TOKEN", http.StatusUnauthorized, "invalid refresh token")
	ErrSessionRevoked          = New("SESSION_REVOKED", http.StatusUnauthorized, "invalid refresh token")
	ErrForbidden               = New("FORBIDDEN", http.StatusForbidden, "access denied - admin only")
	ErrDuplicateEmail          = New("DUPLICATE_EMAIL", http.StatusBadRequest, "email already exists")
	ErrNotFound                = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrSessionStoreUnavailable = New("SESSION_STORE_UNAVAILABLE", http.StatusInternalServerError, "internal server error")
	ErrInternal                = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals that a key is absent from the session store.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
