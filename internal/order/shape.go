// Package order recognises incoming order records and normalises them into a
// single canonical Record.
//
// Two input shapes are accepted:
//
//	{"order":   {"ordernummer", "orderdatum", "betaaltermijn", "klant", "producten": [{..., "btw_percentage"}]}}
//	{"factuur": {"factuurnummer", "factuurdatum", "betaaltermijn", "klant", "producten": [{..., "btw_per_stuk"}], "totalen"}}
//
// The shape is resolved once, here. Lines that only carry a per-unit tax
// amount get their percentage inferred (see tax.InferRate) so that downstream
// code only ever sees a rate.
package order

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"invoicer/pkg/models"
)

// Shape identifies which input layout a record uses.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeRateBased is the pending-order layout with a tax rate per line.
	ShapeRateBased
	// ShapeAmountBased is the quasi-invoiced layout with a tax amount per unit.
	ShapeAmountBased
)

func (s Shape) String() string {
	switch s {
	case ShapeRateBased:
		return "order"
	case ShapeAmountBased:
		return "factuur"
	default:
		return "unknown"
	}
}

// fields lists the JSON keys that carry the common header fields of a shape.
type fields struct {
	container string
	number    string
	date      string
}

func (s Shape) fields() fields {
	if s == ShapeAmountBased {
		return fields{container: "factuur", number: "factuurnummer", date: "factuurdatum"}
	}
	return fields{container: "order", number: "ordernummer", date: "orderdatum"}
}

const (
	keyPaymentTerm = "betaaltermijn"
	keyCustomer    = "klant"
	keyProducts    = "producten"
	keyTotals      = "totalen"
)

var totalKeys = []string{"totaal_excl_btw", "totaal_btw", "totaal_incl_btw"}

// DetectShape inspects the top-level keys of a decoded record. "order" wins
// when both container keys are present.
func DetectShape(top map[string]json.RawMessage) Shape {
	if _, ok := top["order"]; ok {
		return ShapeRateBased
	}
	if _, ok := top["factuur"]; ok {
		return ShapeAmountBased
	}
	return ShapeUnknown
}

// Detect returns the shape of a raw record, or ShapeUnknown when raw is not a
// JSON object.
func Detect(raw []byte) Shape {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return ShapeUnknown
	}
	return DetectShape(top)
}

// Record is the canonical, shape-independent form of an order.
type Record struct {
	Shape Shape

	// Number is the source order or invoice number.
	Number string

	// OrderNumber is the "ordernummer" field; equal to Number for the order shape.
	OrderNumber string

	// Date is the raw dd-mm-yyyy source date.
	Date string

	// PaymentTerm is the raw descriptor, e.g. "30-dagen".
	PaymentTerm string

	Customer models.Customer
	Lines    []Line

	// SuppliedTotals holds pre-computed totals found on the input, if any.
	SuppliedTotals *models.Totals
}

// Line is one order line with its tax rate resolved.
type Line struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TaxRate     int

	// RateInferred is set when TaxRate was derived from a per-unit tax amount.
	RateInferred bool
}
