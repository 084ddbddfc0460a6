package models

import (
	"encoding/json"
	"fmt"
)

// Document is the persisted invoice record: {"factuur": {...}}.
type Document struct {
	Invoice *Invoice `json:"factuur"`
}

type Invoice struct {
	// Identifiers
	InvoiceNumber string `json:"factuurnummer"` // Prefixed source number
	OrderNumber   string `json:"ordernummer"`   // Source order number

	// Dates
	InvoiceDate Date   `json:"factuurdatum"`
	DueDate     Date   `json:"vervaldatum"`
	PaymentTerm string `json:"betaaltermijn,omitempty"` // e.g. "30-dagen"

	// Parties
	Customer Customer `json:"klant"` // Copied verbatim from the source record

	Lines  []InvoiceLine `json:"factuurregels"`
	Totals Totals        `json:"totalen"`
}

// InvoiceLine is one computed invoice row. SubtotalInclTax is always
// SubtotalExclTax + TaxAmount.
type InvoiceLine struct {
	ProductName     string `json:"productnaam"`
	Quantity        int    `json:"aantal"`
	UnitPrice       Money  `json:"prijs_per_stuk_excl_btw"`
	TaxRate         int    `json:"btw_percentage"`
	SubtotalExclTax Money  `json:"subtotal_excl_btw"`
	TaxAmount       Money  `json:"btw_bedrag"`
	SubtotalInclTax Money  `json:"subtotal_incl_btw"`
}

// Totals holds the aggregate amounts, each rounded to cents after summing.
type Totals struct {
	ExclTax Money `json:"totaal_excl_btw"`
	Tax     Money `json:"totaal_btw"`
	InclTax Money `json:"totaal_incl_btw"`
}

// Customer is an opaque pass-through block (naam, adres, postcode, ...).
type Customer map[string]interface{}

// String returns the value stored under key rendered as text, or "".
func (c Customer) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Encode serializes an invoice inside its {"factuur": ...} envelope.
func Encode(inv *Invoice) ([]byte, error) {
	data, err := json.MarshalIndent(Document{Invoice: inv}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode invoice %s: %w", inv.InvoiceNumber, err)
	}
	return data, nil
}

// Decode parses a persisted invoice record.
func Decode(data []byte) (*Invoice, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if doc.Invoice == nil {
		return nil, fmt.Errorf("decode invoice: missing \"factuur\" key")
	}
	return doc.Invoice, nil
}
