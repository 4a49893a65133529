package shared

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrImmutableInvoice is returned when line items of an issued invoice are edited.
	ErrImmutableInvoice = errors.New("invoice is immutable")
	// ErrStaleWrite signals that the record changed since it was read.
	ErrStaleWrite = errors.New("stale write")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError is a shorthand constructor.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown identifier.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return e.Entity + " " + strconv.FormatInt(e.ID, 10) + " not found"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ImmutableInvoiceError is raised on line item mutation outside draft.
type ImmutableInvoiceError struct {
	InvoiceID int64
	Status    string
}

func (e *ImmutableInvoiceError) Error() string {
	return fmt.Sprintf("invoice %d is %s: line items can only change while draft", e.InvoiceID, e.Status)
}

func (e *ImmutableInvoiceError) Is(target error) bool { return target == ErrImmutableInvoice }
