package directory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("directory: not found")
	ErrAlreadyExists      = errors.New("directory: already exists")
	ErrInvalidInput       = errors.New("directory: invalid input")
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	ErrInvalidRole        = errors.New("directory: invalid role")
	ErrAccessDenied       = errors.New("directory: access denied")
	ErrCrypto             = errors.New("directory: crypto failure")
	ErrStorage            = errors.New("directory: storage failure")
)

// ValidationError aggregates every unmet password rule so the caller can
// report them all at once instead of one per round trip.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("directory: validation failed: %s", strings.Join(e.Violations, "; "))
}

// IsValidation reports whether err is an aggregated validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
