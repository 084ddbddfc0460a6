package invoice

import (
	"errors"
	"fmt"

	"invoicer/internal/order"
	"invoicer/internal/tax"
)

// Invoice processing errors. The structural and arithmetic sentinels are
// re-exported so callers can match the whole taxonomy from this package.
var (
	// ErrStructuralValidation is returned when a record fails the pre-flight
	// structural check.
	ErrStructuralValidation = order.ErrStructuralValidation

	// ErrMissingField is returned when a recognised record lacks a required field.
	ErrMissingField = order.ErrMissingField

	// ErrArithmeticPrecondition is returned for non-positive quantities,
	// negative prices or tax amounts, and rates outside 0..100.
	ErrArithmeticPrecondition = tax.ErrArithmeticPrecondition

	// ErrDateParse is returned when a date is not a valid dd-mm-yyyy date.
	ErrDateParse = errors.New("invalid date")

	// ErrPaymentTermParse is returned when a payment term has no leading day count.
	ErrPaymentTermParse = errors.New("invalid payment term")
)

// InvoiceProcessingError wraps errors with the record they belong to.
type InvoiceProcessingError struct {
	// Op is the operation that failed (e.g., "Assemble", "ComputeLine").
	Op string

	// Record is the source order or invoice number, if known.
	Record string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *InvoiceProcessingError) Error() string {
	prefix := "invoice: " + e.Op
	if e.Record != "" {
		prefix = fmt.Sprintf("invoice: %s (record %s)", e.Op, e.Record)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s failed: %s: %v", prefix, e.Details, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", prefix, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *InvoiceProcessingError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *InvoiceProcessingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewInvoiceProcessingError creates a new InvoiceProcessingError with the specified operation and underlying error.
func NewInvoiceProcessingError(op string, err error, details string) *InvoiceProcessingError {
	return &InvoiceProcessingError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapInvoiceProcessingError wraps an error as an InvoiceProcessingError if it
// isn't already one, attaching the record number.
func WrapInvoiceProcessingError(op, record string, err error) error {
	if err == nil {
		return nil
	}

	var invoiceErr *InvoiceProcessingError
	if errors.As(err, &invoiceErr) {
		if invoiceErr.Record == "" {
			invoiceErr.Record = record
		}
		return err
	}

	return &InvoiceProcessingError{Op: op, Record: record, Err: err}
}
