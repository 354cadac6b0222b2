package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a currency cell into a decimal value. The second
// return is false for cells that hold no number: empty cells, bare
// dashes, and non-numeric text. Accepts thousands separators, currency
// symbols, and parenthesized negatives.
func ParseAmount(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	if s == "" || s == "-" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		v = v.Neg()
	}
	return v, true
}

// IsZeroOrEmptyCell reports whether a cell carries no numeric weight:
// empty, a dash, or a value that parses to zero.
func IsZeroOrEmptyCell(cell string) bool {
	v, ok := ParseAmount(cell)
	return !ok || v.IsZero()
}
