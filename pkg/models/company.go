package models

// Company is the issuing party printed on rendered invoices. It is static per
// deployment and passed explicitly to renderers.
type Company struct {
	Name       string `mapstructure:"name"`
	Address    string `mapstructure:"address"`
	PostalCode string `mapstructure:"postal_code"`
	City       string `mapstructure:"city"`
	VATNumber  string `mapstructure:"vat_number"`
	CoCNumber  string `mapstructure:"coc_number"`
	IBAN       string `mapstructure:"iban"`
	Email      string `mapstructure:"email" validate:"omitempty,email"`
}
