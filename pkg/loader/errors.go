package loader

import (
	"errors"
	"fmt"
)

// ValidationError is returned for caller mistakes that are rejected before
// any state is touched, such as an empty domain identifier.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// LoadError is returned when a domain document cannot be fetched or does not
// have the expected shape. The cache is never modified when a LoadError is
// returned.
type LoadError struct {
	Domain string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Domain, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Domain, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsLoad reports whether err is (or wraps) a *LoadError.
func IsLoad(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
