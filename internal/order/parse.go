package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"invoicer/internal/tax"
	"invoicer/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// text accepts both "1001" and 1001 for identifier fields.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text(n.String())
	return nil
}

type rawBody struct {
	OrderNumber   *text           `json:"ordernummer"`
	InvoiceNumber *text           `json:"factuurnummer"`
	OrderDate     *string         `json:"orderdatum"`
	InvoiceDate   *string         `json:"factuurdatum"`
	PaymentTerm   *string         `json:"betaaltermijn"`
	Customer      models.Customer `json:"klant"`
	Products      []rawLine       `json:"producten"`
	Totals        *rawTotals      `json:"totalen"`
}

type rawLine struct {
	ProductName string           `json:"productnaam" validate:"required"`
	Quantity    *int             `json:"aantal" validate:"required"`
	UnitPrice   *decimal.Decimal `json:"prijs_per_stuk_excl_btw" validate:"required"`
	TaxRate     *int             `json:"btw_percentage"`
	TaxPerUnit  *decimal.Decimal `json:"btw_per_stuk"`
}

type rawTotals struct {
	ExclTax *models.Money `json:"totaal_excl_btw" validate:"required"`
	Tax     *models.Money `json:"totaal_btw" validate:"required"`
	InclTax *models.Money `json:"totaal_incl_btw" validate:"required"`
}

// Parse decodes a raw record of either shape into a canonical Record.
//
// A missing container key or required field yields a *FieldError wrapping
// ErrMissingField; undecodable JSON or wrongly typed fields wrap
// ErrStructuralValidation; invalid per-unit tax amounts wrap
// tax.ErrArithmeticPrecondition.
func Parse(raw []byte) (*Record, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, structural("$", nil, err.Error())
	}

	shape := DetectShape(top)
	if shape == ShapeUnknown {
		return nil, &FieldError{
			Field: "order|factuur",
			Err:   fmt.Errorf("%w: %w", ErrMissingField, ErrUnknownShape),
		}
	}
	f := shape.fields()

	var body rawBody
	if err := json.Unmarshal(top[f.container], &body); err != nil {
		return nil, structural(f.container, nil, err.Error())
	}

	number, date := body.OrderNumber, body.OrderDate
	if shape == ShapeAmountBased {
		number, date = body.InvoiceNumber, body.InvoiceDate
	}

	switch {
	case number == nil || strings.TrimSpace(string(*number)) == "":
		return nil, missing(f.container + "." + f.number)
	case date == nil:
		return nil, missing(f.container + "." + f.date)
	case body.PaymentTerm == nil:
		return nil, missing(f.container + "." + keyPaymentTerm)
	case body.Customer == nil:
		return nil, missing(f.container + "." + keyCustomer)
	case body.Products == nil:
		return nil, missing(f.container + "." + keyProducts)
	}

	rec := &Record{
		Shape:       shape,
		Number:      strings.TrimSpace(string(*number)),
		Date:        strings.TrimSpace(*date),
		PaymentTerm: strings.TrimSpace(*body.PaymentTerm),
		Customer:    body.Customer,
		Lines:       make([]Line, 0, len(body.Products)),
	}

	rec.OrderNumber = rec.Number
	if shape == ShapeAmountBased && body.OrderNumber != nil {
		rec.OrderNumber = strings.TrimSpace(string(*body.OrderNumber))
	}

	for i, rl := range body.Products {
		path := fmt.Sprintf("%s.%s[%d]", f.container, keyProducts, i)
		line, err := rl.normalize(path, shape)
		if err != nil {
			return nil, err
		}
		rec.Lines = append(rec.Lines, line)
	}

	if body.Totals != nil {
		if err := validate.Struct(body.Totals); err != nil {
			return nil, validationError(f.container+"."+keyTotals, err)
		}
		rec.SuppliedTotals = &models.Totals{
			ExclTax: *body.Totals.ExclTax,
			Tax:     *body.Totals.Tax,
			InclTax: *body.Totals.InclTax,
		}
	}

	return rec, nil
}

// normalize resolves the tax rate of a line. The field native to the shape
// wins when a line carries both a rate and a per-unit amount.
func (rl rawLine) normalize(path string, shape Shape) (Line, error) {
	if err := validate.Struct(rl); err != nil {
		return Line{}, validationError(path, err)
	}

	line := Line{
		ProductName: strings.TrimSpace(rl.ProductName),
		Quantity:    *rl.Quantity,
		UnitPrice:   *rl.UnitPrice,
	}

	useRate := rl.TaxRate != nil && (shape == ShapeRateBased || rl.TaxPerUnit == nil)
	switch {
	case useRate:
		line.TaxRate = *rl.TaxRate
	case rl.TaxPerUnit != nil:
		rate, err := tax.InferRate(*rl.TaxPerUnit, line.UnitPrice)
		if err != nil {
			return Line{}, &FieldError{Field: path + ".btw_per_stuk", Value: rl.TaxPerUnit.String(), Err: err}
		}
		line.TaxRate = rate
		line.RateInferred = true
	case shape == ShapeAmountBased:
		return Line{}, missing(path + ".btw_per_stuk")
	default:
		return Line{}, missing(path + ".btw_percentage")
	}

	return line, nil
}

// validationError maps the first validator failure to a FieldError.
func validationError(path string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return missing(path + "." + verrs[0].Field())
	}
	return structural(path, nil, err.Error())
}
