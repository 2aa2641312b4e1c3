package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies without a minor unit. Everything else is treated as having two decimals.
var zeroExponent = map[string]bool{
	"CLP": true,
	"ISK": true,
	"JPY": true,
	"KRW": true,
	"UGX": true,
	"VND": true,
}

func exponent(currency string) int32 {
	if zeroExponent[strings.ToUpper(currency)] {
		return 0
	}

	return 2
}

// Decimal converts minor units to a decimal amount in the currency's major unit.
func Decimal(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -exponent(currency))
}

// Format renders minor units, e.g. -1250 UAH as "-12.50 UAH".
func Format(minor int64, currency string) string {
	s := Decimal(minor, currency).StringFixed(exponent(currency))
	if currency == "" {
		return s
	}

	return s + " " + strings.ToUpper(currency)
}

// FormatSigned is Format with an explicit plus sign on positive amounts.
func FormatSigned(minor int64, currency string) string {
	if minor > 0 {
		return "+" + Format(minor, currency)
	}

	return Format(minor, currency)
}
