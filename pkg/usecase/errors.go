package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrInvalidExtraction is returned when the agent answer cannot be decoded
	// into a valid extraction result
	ErrInvalidExtraction = errors.New("invalid extraction result")
)
