package domain

import "errors"

var (
	ErrForbidden       = errors.New("access forbidden")
	ErrUnauthenticated = errors.New("authentication required")
	// ErrValidation wraps every input rule violation; the text after the
	// colon is safe to show to callers.
	ErrValidation = errors.New("validation failed")
)
