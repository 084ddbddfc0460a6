package invoice

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

// oneCent is the tolerance for the supplied incl = excl + tax cross-check.
var oneCent = decimal.New(1, -2)

// TotalsValidation compares totals supplied on a quasi-invoiced record with
// the totals recomputed from its lines.
type TotalsValidation struct {
	log zerolog.Logger
}

// NewTotalsValidation creates a new totals validation service
func NewTotalsValidation() *TotalsValidation {
	return &TotalsValidation{
		log: logger.WithComponent("totals-validation"),
	}
}

// TotalsValidationResult contains the comparison outcome
type TotalsValidationResult struct {
	Warnings       []string
	HasDiscrepancy bool
	MaxDiscrepancy decimal.Decimal // Largest absolute difference in EUR
}

// Compare checks supplied against computed. The computed totals always win;
// differences are only reported.
func (tv *TotalsValidation) Compare(supplied *models.Totals, computed models.Totals) *TotalsValidationResult {
	result := &TotalsValidationResult{Warnings: []string{}}
	if supplied == nil {
		return result
	}

	tv.compareAmount("totaal_excl_btw", supplied.ExclTax, computed.ExclTax, result)
	tv.compareAmount("totaal_btw", supplied.Tax, computed.Tax, result)
	tv.compareAmount("totaal_incl_btw", supplied.InclTax, computed.InclTax, result)

	tv.crossValidate(supplied, result)

	if result.HasDiscrepancy {
		tv.log.Warn().
			Str("max_discrepancy", result.MaxDiscrepancy.StringFixed(2)).
			Strs("warnings", result.Warnings).
			Msg("Supplied totals differ from computed totals")
	}

	return result
}

func (tv *TotalsValidation) compareAmount(field string, supplied, computed models.Money, result *TotalsValidationResult) {
	diff := supplied.Decimal().Sub(computed.Decimal()).Abs()
	if diff.IsZero() {
		return
	}

	if diff.GreaterThan(result.MaxDiscrepancy) {
		result.MaxDiscrepancy = diff
	}
	result.HasDiscrepancy = true
	result.Warnings = append(result.Warnings, fmt.Sprintf(
		"%s: supplied %s, computed %s (difference %s)",
		field, supplied, computed, diff.StringFixed(2)))
}

// crossValidate checks that the supplied totals are consistent on their own.
func (tv *TotalsValidation) crossValidate(supplied *models.Totals, result *TotalsValidationResult) {
	calculated := supplied.ExclTax.Decimal().Add(supplied.Tax.Decimal())
	difference := calculated.Sub(supplied.InclTax.Decimal()).Abs()

	if difference.GreaterThan(oneCent) {
		result.HasDiscrepancy = true
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"supplied totals inconsistent: %s + %s = %s, but totaal_incl_btw = %s",
			supplied.ExclTax, supplied.Tax, calculated.StringFixed(2), supplied.InclTax))
	}
}
