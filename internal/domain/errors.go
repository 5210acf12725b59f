package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrAdvisoryUnavailable = errors.New("advisory service unavailable")
	ErrEmptyMix            = errors.New("mix is empty")
	ErrStaleAdvice         = errors.New("advice is stale: mix changed while waiting")
	ErrUnsupported         = errors.New("not supported by this provider")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidInput        = errors.New("invalid input")
)
