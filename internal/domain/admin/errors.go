package admin

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrNotFound           = errors.New("admin not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("invalid admin role")
	ErrRateLimited        = errors.New("too many login attempts")
)

// RateLimitError carries the wait time of a rejected login.
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() + ", retry after " + e.RetryAfter }

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
