package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNullValue        = errors.New("null value")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidState     = errors.New("invalid state")
	ErrDuplicateEntity  = errors.New("duplicate entity")
	ErrEventNotFound    = errors.New("event not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrConcurrentUpdate = errors.New("event was modified concurrently")
)

// InvalidStateError reports an operation that is not allowed in the
// aggregate's current state.
type InvalidStateError struct {
	Operation string
	Current   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s event in state %s", e.Operation, e.Current)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func nullValue(field string) error {
	return fmt.Errorf("%w: %s is required", ErrNullValue, field)
}

func invalidArgument(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, field, msg)
}
