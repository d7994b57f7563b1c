package booking

import "errors"

var (
	ErrValidation              = errors.New("booking: validation error")
	ErrPastDate                = errors.New("booking: event date is in the past")
	ErrDateUnavailable         = errors.New("booking: date not available")
	ErrPackageNotFound         = errors.New("booking: package not found")
	ErrNotFound                = errors.New("booking: not found")
	ErrProofNotFound           = errors.New("booking: payment proof not found")
	ErrInvalidStatusTransition = errors.New("booking: invalid status transition")
	ErrConcurrentUpdate        = errors.New("booking: status changed concurrently")
	ErrRateLimited             = errors.New("booking: rate limited")
	ErrCodeExhausted           = errors.New("booking: could not allocate a unique booking code")
)

// RateLimitError carries the wait time of a rejected request.
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string { return "booking: rate limited, retry after " + e.RetryAfter }

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ValidationError carries per-field validation failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "booking: validation error" }

func (e *ValidationError) Unwrap() error { return ErrValidation }
