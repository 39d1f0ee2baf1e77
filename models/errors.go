package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrRecurrenceExhausted = errors.New("no eligible occurrence within search bound")
	ErrDuplicateGeneration = errors.New("occurrence already generated")
	ErrStaffingUnavailable = errors.New("no valid crew available")
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("concurrent modification")
)

// ValidationError rejects a malformed input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransitionError reports an illegal lifecycle move. It matches ErrInvalidTransition.
type TransitionError struct {
	From   JobStatus
	Action JobAction
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a job in status %s", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
