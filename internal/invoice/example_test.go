package invoice_test

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"invoicer/internal/invoice"
)

// Example demonstrates turning an order record into an invoice.
func Example() {
	raw := []byte(`{
	  "order": {
	    "ordernummer": "1001",
	    "orderdatum": "01-01-2025",
	    "betaaltermijn": "30-dagen",
	    "klant": {"naam": "Jansen BV"},
	    "producten": [
	      {"productnaam": "Stoel", "aantal": 3, "prijs_per_stuk_excl_btw": 10.00, "btw_percentage": 21}
	    ]
	  }
	}`)

	assembler := invoice.NewAssembler(invoice.DefaultPrefix)
	inv, err := assembler.Assemble(raw)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Invoice: %s\n", inv.InvoiceNumber)
	fmt.Printf("Due: %s\n", inv.DueDate)
	for _, line := range inv.Lines {
		fmt.Printf("%d x %s: %s + %s = %s\n", line.Quantity, line.ProductName,
			line.SubtotalExclTax, line.TaxAmount, line.SubtotalInclTax)
	}
	fmt.Printf("Total: %s\n", inv.Totals.InclTax)

	// Output:
	// Invoice: FACT-1001
	// Due: 31-01-2025
	// 3 x Stoel: 30.00 + 6.30 = 36.30
	// Total: 36.30
}

// ExampleComputeLine shows the half-cent rule on a single line.
func ExampleComputeLine() {
	line, err := invoice.ComputeLine("Boek", 1, decimal.RequireFromString("10.50"), 9)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(line.TaxAmount)
	// Output: 0.94
}
