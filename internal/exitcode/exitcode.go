// Package exitcode maps command errors to process exit codes.
package exitcode

import (
	"strconv"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// Process exit codes.
const (
	OK       = 0
	General  = 1
	Usage    = 2
	Invalid  = 3 // the roadmap failed validation or is inconsistent
	NotFound = 4
	Auth     = 5
	Conflict = 6 // the document changed underneath a guarded write
)

// Coder is implemented by errors that carry their own exit code, such as
// the error a command returns after it already printed a failed validation.
type Coder interface {
	ExitCode() int
}

// FromError returns the exit code for err.
func FromError(err error) int {
	if err == nil {
		return OK
	}

	var coder Coder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	switch {
	case errors.Is(err, errors.ErrDocumentChanged):
		return Conflict
	case errors.Is(err, errors.ErrAuthRequired),
		errors.Is(err, errors.ErrProviderUnavailable):
		return Auth
	case errors.IsNotFound(err):
		return NotFound
	case errors.Is(err, errors.ErrDependencyCycle),
		errors.Is(err, errors.ErrAmbiguousNode):
		return Invalid
	case errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrInvalidRef),
		errors.Is(err, errors.ErrInvalidStatus),
		errors.Is(err, errors.ErrPlanNotAddressed):
		return Usage
	default:
		return General
	}
}

// Error wraps err with an explicit exit code.
type Error struct {
	Code int
	Err  error
}

// New returns an Error carrying code.
func New(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements Coder.
func (e *Error) ExitCode() int { return e.Code }
