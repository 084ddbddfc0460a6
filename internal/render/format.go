package render

import (
	"strings"

	"invoicer/pkg/models"
)

// FormatEuro formats an amount the Dutch way, e.g. "€ 1.234,56".
// Uses dot as thousands separator and comma as decimal separator.
func FormatEuro(amount models.Money) string {
	s := amount.String()

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(whole) + len(whole)/3 + len(frac) + 4)
	if neg {
		b.WriteString("€ -")
	} else {
		b.WriteString("€ ")
	}

	// Insert separators from the left.
	rem := len(whole) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(whole[:rem])
	for i := rem; i < len(whole); i += 3 {
		b.WriteByte('.')
		b.WriteString(whole[i : i+3])
	}

	b.WriteByte(',')
	b.WriteString(frac)

	return b.String()
}
