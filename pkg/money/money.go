package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// FromMinor converts an amount in minor units to its decimal major-unit value.
func FromMinor(minor int) decimal.Decimal {
	return decimal.NewFromInt(int64(minor)).Div(hundred)
}

// ToMinor converts a major-unit decimal back to minor units, rounding to the
// nearest unit.
func ToMinor(major decimal.Decimal) int {
	return int(major.Mul(hundred).Round(0).IntPart())
}

var currencySymbols = map[enums.Currency]string{
	enums.CurrencyNGN: "₦",
	enums.CurrencyUSD: "$",
	enums.CurrencyGHS: "GH₵",
	enums.CurrencyKES: "KSh",
	enums.CurrencyZAR: "R",
}

// Symbol returns the display symbol for a currency, falling back to the
// ISO code for anything unmapped.
func Symbol(currency enums.Currency) string {
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol
	}
	return currency.String() + " "
}

// FormatMinor renders a minor-unit amount as "₦150,000.00".
func FormatMinor(minor int, currency enums.Currency) string {
	return Symbol(currency) + group(FromMinor(minor).StringFixed(2))
}

func group(fixed string) string {
	neg := strings.HasPrefix(fixed, "-")
	if neg {
		fixed = fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
