package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")
	// ErrSubmission marks a contact sink failure; the caller may retry.
	ErrSubmission   = errors.New("submission failed")
	ErrUnsupported  = errors.New("unsupported")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
)
