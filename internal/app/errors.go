package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrTransport        = errors.New("transport error")
)

type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all field violations of a rejected command.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// PublishError is returned when the aggregate was persisted but not every
// pending domain event reached the bus. Delivered events were accepted by the
// publisher; Undelivered starts with the one that failed.
type PublishError struct {
	EventID     string
	Delivered   []domain.DomainEvent
	Undelivered []domain.DomainEvent
	Err         error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish domain events for %s: %d of %d undelivered: %v",
		e.EventID, len(e.Undelivered), len(e.Delivered)+len(e.Undelivered), e.Err)
}

func (e *PublishError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}
