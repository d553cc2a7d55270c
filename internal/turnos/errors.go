package turnos

import (
	"errors"
	"fmt"
)

var (
	// ErrRemote classifies every failed call to the remote collection:
	// transport errors and non-2xx responses alike.
	ErrRemote = errors.New("turnos: remote call failed")

	// ErrMalformed is returned when the store answers with a record that does
	// not fit the appointment schema.
	ErrMalformed = errors.New("turnos: malformed record")

	// ErrMissingField is returned when a business field is empty.
	ErrMissingField = errors.New("turnos: required field missing")

	// ErrInvalidFecha is returned when fecha is not a YYYY-MM-DD date.
	ErrInvalidFecha = errors.New("turnos: fecha must be YYYY-MM-DD")
)

// StatusError carries a non-2xx answer from the remote store.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote store returned %d: %s", e.Status, e.Body)
}

// FieldError names the field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
