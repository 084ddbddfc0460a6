package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/tax"
)

const rateBasedRecord = `{
  "order": {
    "ordernummer": "1001",
    "orderdatum": "01-01-2025",
    "betaaltermijn": "30-dagen",
    "klant": {"naam": "Jansen BV", "adres": "Dorpsstraat 1", "postcode": "1234 AB", "stad": "Utrecht", "btw_nummer": "NL001234567B01"},
    "producten": [
      {"productnaam": "Stoel", "aantal": 3, "prijs_per_stuk_excl_btw": 10.00, "btw_percentage": 21},
      {"productnaam": "Koffie", "aantal": 2, "prijs_per_stuk_excl_btw": 4.50, "btw_percentage": 9}
    ]
  }
}`

const amountBasedRecord = `{
  "factuur": {
    "factuurnummer": 2002,
    "factuurdatum": "15-03-2025",
    "betaaltermijn": "14-dagen",
    "ordernummer": "O-77",
    "klant": {"naam": "De Vries"},
    "producten": [
      {"productnaam": "Lamp", "aantal": 1, "prijs_per_stuk_excl_btw": "10.00", "btw_per_stuk": "2.10"},
      {"productnaam": "Cadeaubon", "aantal": 1, "prijs_per_stuk_excl_btw": 0, "btw_per_stuk": 0}
    ],
    "totalen": {"totaal_excl_btw": 10.00, "totaal_btw": 2.10, "totaal_incl_btw": 12.10}
  }
}`

func TestParseRateBased(t *testing.T) {
	rec, err := Parse([]byte(rateBasedRecord))
	require.NoError(t, err)

	assert.Equal(t, ShapeRateBased, rec.Shape)
	assert.Equal(t, "1001", rec.Number)
	assert.Equal(t, "1001", rec.OrderNumber)
	assert.Equal(t, "01-01-2025", rec.Date)
	assert.Equal(t, "30-dagen", rec.PaymentTerm)
	assert.Equal(t, "Jansen BV", rec.Customer.String("naam"))
	assert.Nil(t, rec.SuppliedTotals)

	require.Len(t, rec.Lines, 2)
	assert.Equal(t, "Stoel", rec.Lines[0].ProductName)
	assert.Equal(t, 3, rec.Lines[0].Quantity)
	assert.Equal(t, "10", rec.Lines[0].UnitPrice.String())
	assert.Equal(t, 21, rec.Lines[0].TaxRate)
	assert.False(t, rec.Lines[0].RateInferred)
	assert.Equal(t, 9, rec.Lines[1].TaxRate)
}

func TestParseAmountBased(t *testing.T) {
	rec, err := Parse([]byte(amountBasedRecord))
	require.NoError(t, err)

	assert.Equal(t, ShapeAmountBased, rec.Shape)
	assert.Equal(t, "2002", rec.Number)
	assert.Equal(t, "O-77", rec.OrderNumber)

	require.Len(t, rec.Lines, 2)
	assert.Equal(t, 21, rec.Lines[0].TaxRate)
	assert.True(t, rec.Lines[0].RateInferred)
	assert.Equal(t, tax.DefaultRate, rec.Lines[1].TaxRate, "zero price falls back to the default rate")

	require.NotNil(t, rec.SuppliedTotals)
	assert.Equal(t, "12.10", rec.SuppliedTotals.InclTax.String())
}

func TestParseMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "no container key",
			raw:   `{"bestelling": {}}`,
			field: "order|factuur",
		},
		{
			name:  "no order number",
			raw:   `{"order": {"orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`,
			field: "order.ordernummer",
		},
		{
			name:  "no invoice date",
			raw:   `{"factuur": {"factuurnummer": "1", "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`,
			field: "factuur.factuurdatum",
		},
		{
			name:  "no payment term",
			raw:   `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "klant": {}, "producten": []}}`,
			field: "order.betaaltermijn",
		},
		{
			name:  "no customer",
			raw:   `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "producten": []}}`,
			field: "order.klant",
		},
		{
			name:  "no product list",
			raw:   `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}}}`,
			field: "order.producten",
		},
		{
			name:  "line without quantity",
			raw:   `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": [{"productnaam": "x", "prijs_per_stuk_excl_btw": 1, "btw_percentage": 21}]}}`,
			field: "order.producten[0].aantal",
		},
		{
			name:  "line without rate",
			raw:   `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": [{"productnaam": "x", "aantal": 1, "prijs_per_stuk_excl_btw": 1}]}}`,
			field: "order.producten[0].btw_percentage",
		},
		{
			name:  "line without tax amount",
			raw:   `{"factuur": {"factuurnummer": "1", "factuurdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": [{"productnaam": "x", "aantal": 1, "prijs_per_stuk_excl_btw": 1}]}}`,
			field: "factuur.producten[0].btw_per_stuk",
		},
		{
			name:  "line with empty name",
			raw:   `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": [{"productnaam": "", "aantal": 1, "prijs_per_stuk_excl_btw": 1, "btw_percentage": 21}]}}`,
			field: "order.producten[0].productnaam",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingField)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestParseUnknownShape(t *testing.T) {
	_, err := Parse([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorIs(t, err, ErrUnknownShape)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.ErrorIs(t, err, ErrStructuralValidation)

	_, err = Parse([]byte(`{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": "Jansen", "producten": []}}`))
	assert.ErrorIs(t, err, ErrStructuralValidation)
}

func TestParseNegativeTaxAmount(t *testing.T) {
	raw := `{"factuur": {"factuurnummer": "1", "factuurdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {},
		"producten": [{"productnaam": "x", "aantal": 1, "prijs_per_stuk_excl_btw": 10, "btw_per_stuk": -2.10}]}}`

	_, err := Parse([]byte(raw))
	assert.ErrorIs(t, err, tax.ErrArithmeticPrecondition)
}

func TestParseEmptyProductList(t *testing.T) {
	raw := `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`

	rec, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Empty(t, rec.Lines)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{name: "rate based", raw: rateBasedRecord, valid: true},
		{name: "amount based with totals", raw: amountBasedRecord, valid: true},
		{name: "empty product list", raw: `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`, valid: true},
		{name: "not an object", raw: `[1, 2]`, valid: false},
		{name: "garbage", raw: `{`, valid: false},
		{name: "unknown container", raw: `{"invoice": {}}`, valid: false},
		{name: "container not an object", raw: `{"order": "1001"}`, valid: false},
		{name: "products not a list", raw: `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": {}}}`, valid: false},
		{name: "product entry not an object", raw: `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": [3]}}`, valid: false},
		{name: "customer not an object", raw: `{"order": {"ordernummer": "1", "orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": [], "producten": []}}`, valid: false},
		{name: "date not a string", raw: `{"order": {"ordernummer": "1", "orderdatum": 20250101, "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`, valid: false},
		{name: "missing number", raw: `{"order": {"orderdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`, valid: false},
		{name: "invoice shape without totals", raw: `{"factuur": {"factuurnummer": "1", "factuurdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": []}}`, valid: false},
		{name: "invoice shape with partial totals", raw: `{"factuur": {"factuurnummer": "1", "factuurdatum": "01-01-2025", "betaaltermijn": "30-dagen", "klant": {}, "producten": [], "totalen": {"totaal_btw": 0}}}`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check([]byte(tt.raw))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrStructuralValidation)
			}
			assert.Equal(t, tt.valid, Validate([]byte(tt.raw)))
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	for _, raw := range []string{rateBasedRecord, `{"invoice": {}}`} {
		first := Validate([]byte(raw))
		second := Validate([]byte(raw))
		assert.Equal(t, first, second)
	}
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "order", ShapeRateBased.String())
	assert.Equal(t, "factuur", ShapeAmountBased.String())
	assert.Equal(t, "unknown", ShapeUnknown.String())
}

func TestDetect(t *testing.T) {
	assert.Equal(t, ShapeRateBased, Detect([]byte(rateBasedRecord)))
	assert.Equal(t, ShapeAmountBased, Detect([]byte(amountBasedRecord)))
	assert.Equal(t, ShapeRateBased, Detect([]byte(`{"order": {}, "factuur": {}}`)))
	assert.Equal(t, ShapeUnknown, Detect([]byte(`{"bestelling": {}}`)))
	assert.Equal(t, ShapeUnknown, Detect([]byte(`[1, 2]`)))
}
