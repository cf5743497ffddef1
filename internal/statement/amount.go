package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyMarker = regexp.MustCompile(`(?i)^(R\$|US\$|BRL|\$|€|£)\s*`)
	nonNumeric     = regexp.MustCompile(`[^\d.]`)
)

// NormalizeAmount parses a locale-ambiguous currency string and returns its
// absolute value. Input that does not parse yields zero.
func NormalizeAmount(s string) decimal.Decimal {
	v, ok := SignedAmount(s)
	if !ok {
		return decimal.Zero
	}
	return v.Abs()
}

// SignedAmount parses s keeping its sign. A minus sign is honoured before or
// after the currency marker and as a trailing suffix ("50,00-").
func SignedAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimSpace(currencyMarker.ReplaceAllString(s, ""))
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case commas == 1:
		s = strings.ReplaceAll(s, ",", ".")
	case commas > 1, dots > 1:
		// only grouping separators
		s = strings.NewReplacer(",", "", ".", "").Replace(s)
	}

	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
