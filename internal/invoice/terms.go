package invoice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoicer/pkg/models"
)

// DefaultPrefix is prepended to source numbers to form invoice numbers.
const DefaultPrefix = "FACT-"

var paymentTermPattern = regexp.MustCompile(`^\s*(\d+)`)

// ParseDate parses a dd-mm-yyyy date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected dd-mm-yyyy", ErrDateParse, value)
	}
	return t, nil
}

// ParsePaymentTerm returns the leading day count of a descriptor such as
// "30-dagen". The unit after the number is ignored.
func ParsePaymentTerm(term string) (int, error) {
	match := paymentTermPattern.FindStringSubmatch(term)
	if match == nil {
		return 0, fmt.Errorf("%w %q: expected \"<days>-<unit>\"", ErrPaymentTermParse, term)
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrPaymentTermParse, term, err)
	}
	return days, nil
}

// DueDate adds the payment term in calendar days.
func DueDate(invoiceDate time.Time, days int) time.Time {
	return invoiceDate.AddDate(0, 0, days)
}

// InvoiceNumber prefixes a source number. Numbers that already carry the
// prefix are returned unchanged, so applying it twice is a no-op.
func InvoiceNumber(prefix, source string) string {
	source = strings.TrimSpace(source)
	if prefix == "" || strings.HasPrefix(source, prefix) {
		return source
	}
	return prefix + source
}
