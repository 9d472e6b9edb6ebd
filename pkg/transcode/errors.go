package transcode

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every *MalformedInputError.
var ErrMalformedInput = errors.New("malformed input")

// Reasons reported by MalformedInputError.
const (
	ReasonRepeatedStart = "repeated comment start sequence"
	ReasonUnterminated  = "unterminated comment block"
)

// MalformedInputError reports comment markup the scanner refuses to convert.
type MalformedInputError struct {
	// Line is the 1-indexed input line the problem was detected at.
	// For an unterminated block it is the line of the opening marker.
	Line int

	// Reason describes the problem.
	Reason string
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Is reports whether target is ErrMalformedInput.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
