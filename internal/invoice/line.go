package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"invoicer/internal/tax"
	"invoicer/pkg/models"
)

// ComputeLine derives the amounts of one invoice line:
//
//	subtotal excl = quantity * unit price   (exact, not rounded)
//	tax           = RoundVAT(subtotal excl * rate / 100)
//	subtotal incl = subtotal excl + tax
//
// Quantities must be positive, prices non-negative and rates within 0..100;
// anything else is rejected with ErrArithmeticPrecondition.
func ComputeLine(productName string, quantity int, unitPrice decimal.Decimal, ratePercent int) (models.InvoiceLine, error) {
	const op = "ComputeLine"

	if quantity <= 0 {
		return models.InvoiceLine{}, NewInvoiceProcessingError(op, ErrArithmeticPrecondition,
			fmt.Sprintf("quantity of %q must be positive, got %d", productName, quantity))
	}
	if unitPrice.IsNegative() {
		return models.InvoiceLine{}, NewInvoiceProcessingError(op, ErrArithmeticPrecondition,
			fmt.Sprintf("unit price of %q must not be negative, got %s", productName, unitPrice))
	}
	if err := tax.ValidateRate(ratePercent); err != nil {
		return models.InvoiceLine{}, NewInvoiceProcessingError(op, err, productName)
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	vat := tax.RoundVAT(tax.Amount(subtotal, ratePercent))

	return models.InvoiceLine{
		ProductName:     productName,
		Quantity:        quantity,
		UnitPrice:       models.NewMoney(unitPrice),
		TaxRate:         ratePercent,
		SubtotalExclTax: models.NewMoney(subtotal),
		TaxAmount:       models.NewMoney(vat),
		SubtotalInclTax: models.NewMoney(subtotal.Add(vat)),
	}, nil
}

// ComputeLineFromTaxAmount is the entry path for lines that only carry a tax
// amount per unit. The rate is inferred first, so the resulting tax is based
// on the whole-percent rate and may differ slightly from quantity * taxPerUnit.
func ComputeLineFromTaxAmount(productName string, quantity int, unitPrice, taxPerUnit decimal.Decimal) (models.InvoiceLine, error) {
	rate, err := tax.InferRate(taxPerUnit, unitPrice)
	if err != nil {
		return models.InvoiceLine{}, NewInvoiceProcessingError("ComputeLineFromTaxAmount", err, productName)
	}
	return ComputeLine(productName, quantity, unitPrice, rate)
}

// SumTotals adds up all line amounts and rounds each aggregate to cents.
// Rounding happens after summing, never per component.
func SumTotals(lines []models.InvoiceLine) models.Totals {
	var excl, vat, incl decimal.Decimal
	for _, line := range lines {
		excl = excl.Add(line.SubtotalExclTax.Decimal())
		vat = vat.Add(line.TaxAmount.Decimal())
		incl = incl.Add(line.SubtotalInclTax.Decimal())
	}

	return models.Totals{
		ExclTax: models.NewMoney(excl.Round(2)),
		Tax:     models.NewMoney(vat.Round(2)),
		InclTax: models.NewMoney(incl.Round(2)),
	}
}
