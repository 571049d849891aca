package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Authentication error kinds.
var (
	ErrNetworkFailure = errors.New("network failure")
	ErrAuthRejected   = errors.New("authentication rejected")
	ErrSessionExpired = errors.New("session expired")
)

var (
	ErrSnapshotNotFound   = errors.New("principal snapshot not found")
	ErrAlreadyInitialized = errors.New("session store already initialized")
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidTourStep    = errors.New("invalid tour step")
)

// LoginFallbackMessage is shown when the backend rejected a login without saying why.
const LoginFallbackMessage = "login failed, please try again"

// AuthError is returned by the auth gateway. errors.Is matches both its Kind
// and the underlying cause.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// BackendError is a non-2xx reply from the REST backend.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// AccessDenied describes an authenticated principal whose role is not
// accepted by a route. It is rendered, never returned as an error.
type AccessDenied struct {
	RequiredRoles []Role
	ActualRole    Role
}

func (d AccessDenied) Message() string {
	required := make([]string, len(d.RequiredRoles))
	for i, r := range d.RequiredRoles {
		required[i] = string(r)
	}
	return fmt.Sprintf("access denied: required role %s; your role: %s",
		strings.Join(required, " or "), d.ActualRole)
}
