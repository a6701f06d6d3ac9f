/*
errors.go - Centralized error types for the rebate engine

PURPOSE:
  The modeling and evaluation core never fails: missing data resolves to
  zero plus a note. Errors exist only at the boundaries around it:
  1. Input errors - a FarmInput that must be rejected before modeling
  2. Configuration errors - bad assumption tables or program configs
  3. Registry errors - missing or duplicate programs

USAGE:
  if errors.Is(err, engine.ErrInvalidInput) {
      // 400 Bad Request
  }

SEE ALSO:
  - validate.go: Produces InvalidInputError
  - evaluator.go: Registry errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when a FarmInput fails boundary validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProgramNotFound is returned when a referenced program isn't registered.
	ErrProgramNotFound = errors.New("program not found")

	// ErrDuplicateProgram is returned when registering an ID twice.
	ErrDuplicateProgram = errors.New("duplicate program id")

	// ErrUnknownProgramKind is returned by the factory for unsupported rule kinds.
	ErrUnknownProgramKind = errors.New("unknown program kind")

	// ErrInvalidProgramConfig is returned when a rule table is malformed.
	ErrInvalidProgramConfig = errors.New("invalid program config")

	// ErrMissingFallbackProfile is returned when an assumption table lacks "other".
	ErrMissingFallbackProfile = errors.New("assumption table missing fallback crop profile")

	// ErrInvalidAssumptions is returned when an assumption table has bad keys or values.
	ErrInvalidAssumptions = errors.New("invalid assumption table")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError names the offending field of a rejected FarmInput.
type InvalidInputError struct {
	Field  string // e.g. "plans[1].acres"
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// ProgramConfigError names the offending program and rule.
type ProgramConfigError struct {
	ProgramID string
	Reason    string
}

func (e *ProgramConfigError) Error() string {
	return fmt.Sprintf("program %q: %s", e.ProgramID, e.Reason)
}

func (e *ProgramConfigError) Unwrap() error {
	return ErrInvalidProgramConfig
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidProgramConfig) ||
		errors.Is(err, ErrUnknownProgramKind) ||
		errors.Is(err, ErrInvalidAssumptions) ||
		errors.Is(err, ErrMissingFallbackProfile)
}

// IsNotFound returns true if the error indicates a missing program.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProgramNotFound)
}

// IsConflict returns true if the error indicates a duplicate registration.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateProgram)
}
