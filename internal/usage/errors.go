package usage

import "errors"

var (
	// ErrInvalidMessage marks a change that can never be applied.
	ErrInvalidMessage = errors.New("invalid usage message")
	// ErrInvalidInput marks an unusable userId on reads.
	ErrInvalidInput = errors.New("invalid input")
)
