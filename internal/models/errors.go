package models

import "fmt"

// ValidationError indicates a malformed or out-of-range request field.
// It is surfaced to the caller verbatim; no recovery is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// TrainingError indicates empty or unparsable training input.
// The previously committed model is left untouched.
type TrainingError struct {
	Reason string
	Err    error
}

func (e *TrainingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("training: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("training: %s", e.Reason)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// NewTrainingError creates a training error, optionally wrapping a cause.
func NewTrainingError(reason string, err error) *TrainingError {
	return &TrainingError{Reason: reason, Err: err}
}

// PersistenceError indicates a durable-store read or write failure.
// Writes are atomic, so the previously committed state remains authoritative
// and the caller may retry.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a persistence error for an operation on a key.
func NewPersistenceError(op, key string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Key: key, Err: err}
}
