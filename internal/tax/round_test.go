package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundVAT(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "exact half cent rounds down", amount: "10.125", want: "10.12"},
		{name: "half cent with trailing zeros", amount: "10.1250", want: "10.12"},
		{name: "half cent on odd cent", amount: "0.015", want: "0.01"},
		{name: "above half cent rounds up", amount: "10.126", want: "10.13"},
		{name: "below half cent rounds down", amount: "10.124", want: "10.12"},
		{name: "just past half cent rounds up", amount: "10.1251", want: "10.13"},
		{name: "already cents", amount: "6.30", want: "6.30"},
		{name: "whole euros", amount: "42", want: "42.00"},
		{name: "fifty cents is not a half cent", amount: "10.50", want: "10.50"},
		{name: "zero", amount: "0", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundVAT(dec(tt.amount))
			assert.True(t, got.Equal(dec(tt.want)), "RoundVAT(%s) = %s, want %s", tt.amount, got, tt.want)
		})
	}
}

func TestIsHalfCent(t *testing.T) {
	assert.True(t, IsHalfCent(dec("1.005")))
	assert.True(t, IsHalfCent(dec("-1.005")))
	assert.False(t, IsHalfCent(dec("1.0050001")))
	assert.False(t, IsHalfCent(dec("1.50")))
	assert.False(t, IsHalfCent(dec("1.004")))
}

func TestAmount(t *testing.T) {
	assert.True(t, Amount(dec("30.00"), 21).Equal(dec("6.3")))
	assert.True(t, Amount(dec("0.75"), 9).Equal(dec("0.0675")))
	assert.True(t, Amount(dec("12.50"), 0).IsZero())
}

func TestInferRate(t *testing.T) {
	tests := []struct {
		name       string
		taxPerUnit string
		unitPrice  string
		want       int
	}{
		{name: "standard rate", taxPerUnit: "2.10", unitPrice: "10.00", want: 21},
		{name: "reduced rate", taxPerUnit: "0.45", unitPrice: "5.00", want: 9},
		{name: "rounded to nearest percent", taxPerUnit: "0.99", unitPrice: "4.99", want: 20},
		{name: "zero tax", taxPerUnit: "0", unitPrice: "3.50", want: 0},
		{name: "zero price falls back to default", taxPerUnit: "1.00", unitPrice: "0", want: DefaultRate},
		{name: "half percent rounds away from zero", taxPerUnit: "0.125", unitPrice: "1.00", want: 13},
		{name: "half percent on a reduced rate", taxPerUnit: "0.085", unitPrice: "1.00", want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferRate(dec(tt.taxPerUnit), dec(tt.unitPrice))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferRateRejectsBadInput(t *testing.T) {
	_, err := InferRate(dec("-1"), dec("10"))
	assert.ErrorIs(t, err, ErrArithmeticPrecondition)

	_, err = InferRate(dec("1"), dec("-10"))
	assert.ErrorIs(t, err, ErrArithmeticPrecondition)

	_, err = InferRate(dec("50"), dec("10"))
	assert.ErrorIs(t, err, ErrArithmeticPrecondition)
}

func TestValidateRate(t *testing.T) {
	assert.NoError(t, ValidateRate(0))
	assert.NoError(t, ValidateRate(21))
	assert.NoError(t, ValidateRate(MaxRate))
	assert.ErrorIs(t, ValidateRate(-1), ErrArithmeticPrecondition)
	assert.ErrorIs(t, ValidateRate(101), ErrArithmeticPrecondition)
}
