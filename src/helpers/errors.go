package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type SimulatorError struct {
	Message string
	Cause   error
}

func (e *SimulatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SimulatorError) Unwrap() error {
	return e.Cause
}

// Distinct error types for the orchestration pipeline. A validation error is
// resolved before any downstream call; a persistence error happens after a
// successful engine call and must never be reported as an engine failure.
type ValidationError struct{ SimulatorError }
type PersistenceError struct{ SimulatorError }

// -----------------------------------------------------------------------------

// EngineError carries a non-2xx downstream response verbatim so the caller
// can surface the engine's own status code and payload.
type EngineError struct {
	Status int
	Body   []byte
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine returned status %d", e.Status)
}

// EngineUnavailableError marks a transport-level failure reaching the engine.
type EngineUnavailableError struct{ SimulatorError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{SimulatorError{Message: fmt.Sprintf(format, args...)}}
}

func NewPersistenceError(cause error) error {
	return &PersistenceError{SimulatorError{Message: "failed to persist backtest record", Cause: cause}}
}

func NewEngineUnavailableError(cause error) error {
	return &EngineUnavailableError{SimulatorError{Message: "strategy engine unreachable", Cause: cause}}
}

// -----------------------------------------------------------------------------
// Classification helpers
// -----------------------------------------------------------------------------

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
