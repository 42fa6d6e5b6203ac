package silk

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams indicates frame parameters the quantizers cannot accept.
	// Every PreconditionError wraps it.
	ErrInvalidParams = errors.New("silk: invalid quantizer parameters")

	// ErrPulseOverflow indicates a pulse sequence with a level outside [-64, 64].
	ErrPulseOverflow = errors.New("silk: pulse level out of range")
)

// PreconditionError reports the parameter field that failed validation.
type PreconditionError struct {
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("silk: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidParams so callers can match with errors.Is.
func (e *PreconditionError) Unwrap() error {
	return ErrInvalidParams
}

func preconditionf(field, format string, args ...any) error {
	return &PreconditionError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
