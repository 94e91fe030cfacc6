package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMalformedInput    = errors.New("malformed input")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
)
