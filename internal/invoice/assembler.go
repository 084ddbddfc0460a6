package invoice

import (
	"github.com/rs/zerolog"

	"invoicer/internal/logger"
	"invoicer/internal/order"
	"invoicer/pkg/models"
)

// Assembler builds invoices from order records.
type Assembler struct {
	prefix string
	totals *TotalsValidation
	log    zerolog.Logger
}

// NewAssembler creates an Assembler that prefixes invoice numbers with
// prefix. An empty prefix keeps source numbers as they are.
func NewAssembler(prefix string) *Assembler {
	return &Assembler{
		prefix: prefix,
		totals: NewTotalsValidation(),
		log:    logger.WithComponent("assembler"),
	}
}

// Assemble parses raw and builds its invoice.
func (a *Assembler) Assemble(raw []byte) (*models.Invoice, error) {
	outcome, err := a.Process(raw)
	if err != nil {
		return nil, err
	}
	return outcome.Invoice, nil
}

// Process implements Processor.
func (a *Assembler) Process(raw []byte) (*Outcome, error) {
	const op = "Assemble"

	rec, err := order.Parse(raw)
	if err != nil {
		return nil, WrapInvoiceProcessingError(op, "", err)
	}

	inv, err := a.AssembleRecord(rec)
	if err != nil {
		return nil, err
	}

	check := a.totals.Compare(rec.SuppliedTotals, inv.Totals)

	return &Outcome{
		Invoice:  inv,
		Record:   rec,
		Warnings: check.Warnings,
	}, nil
}

// AssembleRecord builds the invoice for an already normalised record.
func (a *Assembler) AssembleRecord(rec *order.Record) (*models.Invoice, error) {
	const op = "AssembleRecord"

	lines := make([]models.InvoiceLine, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		line, err := ComputeLine(l.ProductName, l.Quantity, l.UnitPrice, l.TaxRate)
		if err != nil {
			return nil, WrapInvoiceProcessingError(op, rec.Number, err)
		}
		lines = append(lines, line)
	}

	invoiceDate, err := ParseDate(rec.Date)
	if err != nil {
		return nil, WrapInvoiceProcessingError(op, rec.Number, err)
	}

	days, err := ParsePaymentTerm(rec.PaymentTerm)
	if err != nil {
		return nil, WrapInvoiceProcessingError(op, rec.Number, err)
	}

	inv := &models.Invoice{
		InvoiceNumber: InvoiceNumber(a.prefix, rec.Number),
		OrderNumber:   rec.OrderNumber,
		InvoiceDate:   models.NewDate(invoiceDate),
		DueDate:       models.NewDate(DueDate(invoiceDate, days)),
		PaymentTerm:   rec.PaymentTerm,
		Customer:      rec.Customer,
		Lines:         lines,
		Totals:        SumTotals(lines),
	}

	a.log.Debug().
		Str("invoice_number", inv.InvoiceNumber).
		Str("shape", rec.Shape.String()).
		Int("lines", len(lines)).
		Str("total_incl", inv.Totals.InclTax.String()).
		Msg("Invoice assembled")

	return inv, nil
}
