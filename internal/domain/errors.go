package domain

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// NotFoundError means the referenced record does not exist for the caller's owner.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidStateError means the record exists but its state forbids the operation,
// e.g. posting to a completed budget or linking to an unconnected income.
type InvalidStateError struct {
	Entity string
	ID     string
	Msg    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Msg)
}

func InvalidState(entity, id, msg string) error {
	return &InvalidStateError{Entity: entity, ID: id, Msg: msg}
}

// ConsistencyDriftError reports a cached aggregate that disagreed with the value
// recomputed from its detail records. It is logged and repaired, never returned
// to API callers.
type ConsistencyDriftError struct {
	Entity string
	ID     string
	Field  string
	Cached int64
	Actual int64
}

func (e *ConsistencyDriftError) Error() string {
	return fmt.Sprintf("%s %s: %s drifted (cached %d, recomputed %d)", e.Entity, e.ID, e.Field, e.Cached, e.Actual)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsInvalidState(err error) bool {
	var v *InvalidStateError
	return errors.As(err, &v)
}
