package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// FormatAmount renders a decimal amount with its ISO currency symbol for
// display, e.g. "$1,299.99" becomes "USD 1299.99" when the code is unknown
// to the currency tables.
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + amount.StringFixed(2)
	}
	return unit.String() + " " + amount.StringFixed(2)
}
