package order

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralValidation is returned by Check when a record does not have
	// the fields or field types required for its shape.
	ErrStructuralValidation = errors.New("record failed structural validation")

	// ErrMissingField is returned by Parse when a required field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownShape is returned when neither the "order" nor the "factuur"
	// container key is present.
	ErrUnknownShape = errors.New("unrecognized record shape: expected \"order\" or \"factuur\" key")
)

// FieldError points at the offending field of a record.
type FieldError struct {
	// Field is the dotted path of the field, e.g. "order.producten[2].aantal".
	Field string

	// Value is the offending value, if any.
	Value interface{}

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("field '%s': %v (value: %v)", e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("field '%s': %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FieldError) Unwrap() error {
	return e.Err
}

func structural(field string, value interface{}, reason string) error {
	return &FieldError{
		Field: field,
		Value: value,
		Err:   fmt.Errorf("%w: %s", ErrStructuralValidation, reason),
	}
}

func missing(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}
