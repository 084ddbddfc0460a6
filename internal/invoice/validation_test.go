package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoicer/pkg/models"
)

func totals(excl, vat, incl string) models.Totals {
	return models.Totals{
		ExclTax: models.MustMoney(excl),
		Tax:     models.MustMoney(vat),
		InclTax: models.MustMoney(incl),
	}
}

func TestTotalsValidationCompare(t *testing.T) {
	tv := NewTotalsValidation()
	computed := totals("10.00", "2.10", "12.10")

	t.Run("nothing supplied", func(t *testing.T) {
		result := tv.Compare(nil, computed)
		assert.False(t, result.HasDiscrepancy)
		assert.Empty(t, result.Warnings)
	})

	t.Run("equal totals", func(t *testing.T) {
		supplied := totals("10", "2.1", "12.10")
		result := tv.Compare(&supplied, computed)
		assert.False(t, result.HasDiscrepancy)
		assert.Empty(t, result.Warnings)
	})

	t.Run("one field off", func(t *testing.T) {
		supplied := totals("10.00", "2.11", "12.11")
		result := tv.Compare(&supplied, computed)
		assert.True(t, result.HasDiscrepancy)
		assert.Len(t, result.Warnings, 2)
		assert.Equal(t, "0.01", result.MaxDiscrepancy.StringFixed(2))
	})

	t.Run("inconsistent supplied totals", func(t *testing.T) {
		supplied := totals("10.00", "2.10", "15.00")
		result := tv.Compare(&supplied, computed)
		assert.True(t, result.HasDiscrepancy)
		assert.Len(t, result.Warnings, 2)
		assert.Contains(t, result.Warnings[1], "inconsistent")
		assert.Equal(t, "2.90", result.MaxDiscrepancy.StringFixed(2))
	})
}
