package merging

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidMarkers is returned when conflict markers are present but malformed.
	ErrInvalidMarkers = errors.New("invalid conflict markers")
	// ErrFileTooLarge is returned when input exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidSyntax is returned when the resolved text fails validation for its format.
	ErrInvalidSyntax = errors.New("invalid syntax after resolution")
	// ErrIO wraps read, write and backup failures.
	ErrIO = errors.New("i/o failure")
)
