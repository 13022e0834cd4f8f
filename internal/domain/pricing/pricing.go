// Package pricing derives discounted unit prices. Every component that shows or totals a price
// goes through here so listing, cart and checkout agree to the paisa.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when there is no usable base price
var ErrUnavailable = errors.New("price unavailable")

// Places is the number of decimal places prices are rounded to
const Places = 2

var hundred = decimal.NewFromInt(100)

// DiscountedPrice returns base - base*discount/100 rounded to two places.
// An absent discount returns the base unchanged. Discounts outside [0,100] are clamped.
func DiscountedPrice(base, discount decimal.NullDecimal) (decimal.Decimal, error) {
	if !base.Valid || base.Decimal.IsNegative() {
		return decimal.Zero, ErrUnavailable
	}
	if !discount.Valid {
		return base.Decimal, nil
	}

	pct := ClampPercent(discount.Decimal)
	cut := base.Decimal.Mul(pct).Div(hundred)
	return Round(base.Decimal.Sub(cut)), nil
}

// FromInput parses raw form values and prices them. Inputs are validated before any arithmetic.
func FromInput(base, discount string) (decimal.Decimal, error) {
	return DiscountedPrice(ParseAmount(base), ParseAmount(discount))
}

// ParseAmount parses a user supplied number. Empty or non-numeric input yields an invalid value.
func ParseAmount(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ClampPercent bounds a percentage to [0,100]
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// Round rounds an amount to two decimal places, half away from zero
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Places)
}

// LineTotal returns unit * quantity
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(quantity))))
}

// Display renders a price for people, e.g. "PKR 12,760.00". An error renders as "Price unavailable".
func Display(currency string, amount decimal.Decimal, err error) string {
	if err != nil {
		return "Price unavailable"
	}

	s := amount.StringFixed(Places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return currency + " " + sign + b.String() + "." + frac
}
