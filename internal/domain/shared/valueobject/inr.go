package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RupeeSymbol prefixes every formatted amount
const RupeeSymbol = "₹"

var (
	thousand = decimal.NewFromInt(1_000)
	lakh     = decimal.NewFromInt(1_00_000)
	crore    = decimal.NewFromInt(1_00_00_000)
)

// FormatINR renders an amount in Indian rupees.
//
// Compact mode abbreviates with one decimal place: K for thousands, L for
// lakhs and Cr for crores; smaller amounts fall through to the full form.
// The full form rounds to whole rupees and groups digits the Indian way
// (1,00,000). Negative amounts carry a leading minus: -₹1,500.
func FormatINR(amount decimal.Decimal, compact bool) string {
	if amount.IsZero() {
		return RupeeSymbol + "0"
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	if compact {
		switch {
		case amount.GreaterThanOrEqual(crore):
			return sign + RupeeSymbol + amount.Div(crore).StringFixed(1) + "Cr"
		case amount.GreaterThanOrEqual(lakh):
			return sign + RupeeSymbol + amount.Div(lakh).StringFixed(1) + "L"
		case amount.GreaterThanOrEqual(thousand):
			return sign + RupeeSymbol + amount.Div(thousand).StringFixed(1) + "K"
		}
	}

	whole := amount.Round(0).String()
	if whole == "0" {
		return RupeeSymbol + "0"
	}
	return sign + RupeeSymbol + groupIndian(whole)
}

// FormatINRFloat is a convenience for callers holding float amounts.
func FormatINRFloat(amount float64, compact bool) string {
	return FormatINR(decimal.NewFromFloat(amount), compact)
}

// groupIndian inserts separators into an unsigned digit string: the last three
// digits form one group and every two digits before that form another.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}
