// Package invoice turns normalised order records into invoice records.
//
// The pipeline per record is:
//
//	raw JSON -> order.Parse (shape detection, rate resolution)
//	         -> ComputeLine per line (tax.RoundVAT)
//	         -> SumTotals, ParseDate, ParsePaymentTerm, DueDate, InvoiceNumber
//	         -> *models.Invoice
//
// Every step is a pure function of its input. The Assembler holds only
// static settings (the invoice number prefix) and may be shared between
// goroutines.
//
// Errors:
//   - ErrMissingField: container key or required field absent
//   - ErrStructuralValidation: malformed JSON or wrongly typed field
//   - ErrDateParse / ErrPaymentTermParse: unparseable date or term
//   - ErrArithmeticPrecondition: quantity <= 0, negative price, bad rate
package invoice

import (
	"invoicer/internal/order"
	"invoicer/pkg/models"
)

// Processor defines the interface for turning one raw record into an invoice.
type Processor interface {
	// Process assembles raw into an invoice and reports non-fatal warnings.
	Process(raw []byte) (*Outcome, error)
}

// Outcome is the result of assembling one record.
type Outcome struct {
	// Invoice is the assembled invoice record.
	Invoice *models.Invoice

	// Record is the normalised input the invoice was built from.
	Record *order.Record

	// Warnings lists non-fatal findings, e.g. supplied totals that differ
	// from the recomputed ones.
	Warnings []string
}
