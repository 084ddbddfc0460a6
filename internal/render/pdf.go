// Package render turns assembled invoice records into printable documents.
package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/rs/zerolog"

	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

// Renderer produces a document for an invoice.
type Renderer interface {
	Render(ctx context.Context, inv *models.Invoice) ([]byte, error)
}

// PDFRenderer renders invoices as A4 PDF documents.
type PDFRenderer struct {
	company models.Company
	log     zerolog.Logger
}

// NewPDFRenderer creates a renderer that prints company as the issuing party.
func NewPDFRenderer(company models.Company) *PDFRenderer {
	return &PDFRenderer{
		company: company,
		log:     logger.WithComponent("pdf-renderer"),
	}
}

var (
	headerText = props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center}
	cellText   = props.Text{Size: 8, Align: align.Center}
	labelText  = props.Text{Size: 9, Style: fontstyle.Bold}
	valueText  = props.Text{Size: 9}
)

// Render implements Renderer.
func (r *PDFRenderer) Render(ctx context.Context, inv *models.Invoice) ([]byte, error) {
	const op = "render.PDF"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%s: nil invoice", op)
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} van {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "Factuur", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	r.addParties(m, inv.Customer)
	addDetails(m, inv)
	addLines(m, inv.Lines)
	addTotals(m, inv.Totals)

	if r.company.IBAN != "" {
		m.AddRow(14,
			text.NewCol(12, fmt.Sprintf("Gelieve %s voor %s over te maken op %s t.n.v. %s o.v.v. %s.",
				FormatEuro(inv.Totals.InclTax), inv.DueDate, r.company.IBAN, r.company.Name, inv.InvoiceNumber),
				props.Text{Size: 8, Top: 6}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("%s: generate %s: %w", op, inv.InvoiceNumber, err)
	}

	r.log.Debug().
		Str("invoice_number", inv.InvoiceNumber).
		Int("lines", len(inv.Lines)).
		Msg("PDF rendered")

	return doc.GetBytes(), nil
}

// addParties prints the issuing company next to the customer block.
func (r *PDFRenderer) addParties(m core.Maroto, customer models.Customer) {
	seller := col.New(6)
	top := 0.0
	for _, line := range nonEmpty(
		r.company.Name,
		r.company.Address,
		join(" ", r.company.PostalCode, r.company.City),
		prefixed("BTW: ", r.company.VATNumber),
		prefixed("KvK: ", r.company.CoCNumber),
		prefixed("IBAN: ", r.company.IBAN),
		r.company.Email,
	) {
		style := valueText
		style.Top = top
		if top == 0 {
			style.Style = fontstyle.Bold
		}
		seller.Add(text.New(line, style))
		top += 4
	}

	buyer := col.New(6).Add(text.New("Klant", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}))
	top = 4
	for _, line := range nonEmpty(
		customer.String("naam"),
		customer.String("adres"),
		join(" ", customer.String("postcode"), customer.String("stad")),
		prefixed("BTW: ", customer.String("btw_nummer")),
		prefixed("E-mail: ", customer.String("email")),
	) {
		buyer.Add(text.New(line, props.Text{Size: 9, Top: top, Align: align.Right}))
		top += 4
	}

	m.AddRow(34, seller, buyer)
}

func addDetails(m core.Maroto, inv *models.Invoice) {
	details := [][2]string{
		{"Factuurnummer:", inv.InvoiceNumber},
		{"Factuurdatum:", inv.InvoiceDate.String()},
		{"Vervaldatum:", inv.DueDate.String()},
		{"Ordernummer:", inv.OrderNumber},
	}
	if inv.PaymentTerm != "" {
		details = append(details, [2]string{"Betaaltermijn:", inv.PaymentTerm})
	}

	for _, d := range details {
		m.AddRow(5,
			text.NewCol(3, d[0], labelText),
			text.NewCol(9, d[1], valueText),
		)
	}
	m.AddRow(6)
}

func addLines(m core.Maroto, lines []models.InvoiceLine) {
	m.AddRow(8,
		text.NewCol(1, "Aantal", headerText),
		text.NewCol(3, "Productnaam", headerText),
		text.NewCol(2, "Prijs/stuk", headerText),
		text.NewCol(1, "BTW%", headerText),
		text.NewCol(2, "Subtotaal excl.", headerText),
		text.NewCol(1, "BTW", headerText),
		text.NewCol(2, "Subtotaal incl.", headerText),
	)

	for _, line := range lines {
		m.AddRow(6,
			text.NewCol(1, strconv.Itoa(line.Quantity), cellText),
			text.NewCol(3, line.ProductName, props.Text{Size: 8, Align: align.Left}),
			text.NewCol(2, FormatEuro(line.UnitPrice), cellText),
			text.NewCol(1, strconv.Itoa(line.TaxRate)+"%", cellText),
			text.NewCol(2, FormatEuro(line.SubtotalExclTax), cellText),
			text.NewCol(1, FormatEuro(line.TaxAmount), cellText),
			text.NewCol(2, FormatEuro(line.SubtotalInclTax), cellText),
		)
	}
	m.AddRow(6)
}

func addTotals(m core.Maroto, totals models.Totals) {
	rows := [][2]string{
		{"Totaal excl. BTW:", FormatEuro(totals.ExclTax)},
		{"Totaal BTW:", FormatEuro(totals.Tax)},
		{"Totaal incl. BTW:", FormatEuro(totals.InclTax)},
	}
	for _, row := range rows {
		m.AddRow(6,
			col.New(6),
			text.NewCol(3, row[0], props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(3, row[1], props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		)
	}
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func join(sep string, parts ...string) string {
	return strings.Join(nonEmpty(parts...), sep)
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}
