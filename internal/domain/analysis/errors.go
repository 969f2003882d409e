package analysis

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable indicates a provider could not be reached or
// rejected the request outright. Causes fallthrough to the next stage.
var ErrProviderUnavailable = errors.New("provider not configured")

// ErrProviderTimeout indicates a provider did not finish within its polling
// cap. Transient; causes fallthrough to the next stage.
var ErrProviderTimeout = errors.New("provider timed out")

// ErrNotFound indicates a history record does not exist.
var ErrNotFound = errors.New("analysis not found")

// ValidationError rejects malformed input before it reaches the orchestrator.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
