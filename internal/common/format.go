package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats a decimal as a dollar amount with comma separators.
func FormatMoney(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)

	whole, cents, _ := strings.Cut(s, ".")
	if len(whole) > 3 {
		var parts []string
		for len(whole) > 3 {
			parts = append([]string{whole[len(whole)-3:]}, parts...)
			whole = whole[:len(whole)-3]
		}
		parts = append([]string{whole}, parts...)
		whole = strings.Join(parts, ",")
	}

	if v.IsNegative() {
		return fmt.Sprintf("-$%s.%s", whole, cents)
	}
	return fmt.Sprintf("$%s.%s", whole, cents)
}

// FormatSignedMoney formats a dollar amount with a +/- prefix.
func FormatSignedMoney(v decimal.Decimal) string {
	if v.Sign() >= 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatPercent formats an ownership percentage with two decimals.
func FormatPercent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// TitleName capitalizes the first letter of a partner key for display
// when no display name is on record.
func TitleName(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
