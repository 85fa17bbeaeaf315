package debts

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount returns the display form of an amount in the given currency
// code. Without a currency the amount is printed with two decimals.
func FormatAmount(v decimal.Decimal, cur string) string {
	if cur == "" {
		return v.StringFixed(2)
	}
	// to get a never nil currency I need to call the Money constructor
	c := *money.New(0, cur).Currency()
	return c.Formatter().Format(v.Shift(int32(c.Fraction)).Round(0).IntPart())
}

// FormatSigned is like FormatAmount but always shows the sign of non-zero
// amounts.
func FormatSigned(v decimal.Decimal, cur string) string {
	if v.IsPositive() {
		return "+" + FormatAmount(v, cur)
	}
	return FormatAmount(v, cur)
}

// ValidCurrency reports whether code is a known ISO 4217 currency code.
func ValidCurrency(code string) bool { return money.GetCurrency(code) != nil }
