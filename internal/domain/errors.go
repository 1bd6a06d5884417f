package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord matches every per-record normalization failure via errors.Is.
var ErrInvalidRecord = errors.New("invalid record")

// MissingFieldError reports a required external field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrInvalidRecord }

// InvalidLiteralError reports a constrained-vocabulary value outside its set.
type InvalidLiteralError struct {
	Field string
	Value string
}

func (e *InvalidLiteralError) Error() string {
	return fmt.Sprintf("field %q: unexpected value %q", e.Field, e.Value)
}

func (e *InvalidLiteralError) Is(target error) bool { return target == ErrInvalidRecord }

// CoercionError reports a value that could not be converted to its column type.
type CoercionError struct {
	Field string
	Value string
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot convert %q: %v", e.Field, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

func (e *CoercionError) Is(target error) bool { return target == ErrInvalidRecord }

// ErrorKind returns a short label for metrics and logs.
func ErrorKind(err error) string {
	var missing *MissingFieldError
	var literal *InvalidLiteralError
	var coercion *CoercionError
	switch {
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &literal):
		return "invalid_literal"
	case errors.As(err, &coercion):
		return "coercion"
	default:
		return "decode"
	}
}
