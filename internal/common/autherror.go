package common

import (
	"errors"
	"net/http"
)

// Kind classifies an AuthError. Every kind except KindConfig maps to exactly
// one HTTP status.
type Kind int

const (
	KindServerError Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConfig:
		return "config"
	default:
		return "server_error"
	}
}

// AuthError is the error type returned by the authentication gate and the
// user service. Message is safe to show to the client; Err is the internal
// cause and is only logged.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

// NewAuthError builds an AuthError without an underlying cause.
func NewAuthError(kind Kind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// WrapAuthError builds an AuthError that keeps err as its cause.
func WrapAuthError(kind Kind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status.
func (e *AuthError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsAuthError extracts an AuthError from err. Any other error becomes a
// generic server error so internal details never reach the client.
func AsAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return WrapAuthError(KindServerError, "internal server error", err)
}
