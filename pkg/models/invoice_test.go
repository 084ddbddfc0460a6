package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "integer", in: "30", want: "30.00"},
		{name: "cents", in: "6.3", want: "6.30"},
		{name: "extra precision is rounded for output", in: "10.125", want: "10.13"},
		{name: "zero", in: "0", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(MustMoney(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestMoneyUnmarshalKeepsExactDigits(t *testing.T) {
	var payload struct {
		Number Money `json:"number"`
		Text   Money `json:"text"`
	}
	err := json.Unmarshal([]byte(`{"number": 0.1, "text": "10.125"}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, "0.1", payload.Number.Decimal().String())
	assert.Equal(t, "10.125", payload.Text.Decimal().String())
}

func TestDateJSON(t *testing.T) {
	d := NewDate(time.Date(2025, time.January, 31, 15, 4, 5, 0, time.UTC))

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"31-01-2025"`, string(out))

	var back Date
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back.Equal(d.Time))

	assert.Error(t, json.Unmarshal([]byte(`"2025-01-31"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`20250131`), &back))
}

func TestCustomerString(t *testing.T) {
	c := Customer{"naam": "Jansen BV", "huisnummer": float64(12), "leeg": nil}

	assert.Equal(t, "Jansen BV", c.String("naam"))
	assert.Equal(t, "12", c.String("huisnummer"))
	assert.Equal(t, "", c.String("leeg"))
	assert.Equal(t, "", c.String("onbekend"))
}

func TestEncodeDecode(t *testing.T) {
	inv := &Invoice{
		InvoiceNumber: "FACT-1001",
		OrderNumber:   "1001",
		InvoiceDate:   NewDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		DueDate:       NewDate(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)),
		Customer:      Customer{"naam": "Jansen BV"},
		Lines: []InvoiceLine{{
			ProductName:     "Stoel",
			Quantity:        3,
			UnitPrice:       MustMoney("10.00"),
			TaxRate:         21,
			SubtotalExclTax: MustMoney("30.00"),
			TaxAmount:       MustMoney("6.30"),
			SubtotalInclTax: MustMoney("36.30"),
		}},
		Totals: Totals{
			ExclTax: MustMoney("30.00"),
			Tax:     MustMoney("6.30"),
			InclTax: MustMoney("36.30"),
		},
	}

	data, err := Encode(inv)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"factuur"`)
	assert.Contains(t, string(data), `"btw_bedrag": 6.30`)

	back, err := Decode(data)
	require.NoError(t, err)

	again, err := Encode(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	_, err = Decode([]byte(`{"order": {}}`))
	assert.Error(t, err)
}
