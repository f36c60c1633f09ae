// Package finance provides the currency-amount value type and the
// financial-transaction manifest context module, grounded on
// modules/finance_utils/currency_amount.py and
// modules/manifest_modules/financial_transaction.py in the LIMAR original.
package finance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
)

// Amount is a currency value stored in the lowest unit of the currency
// (eg. pence, cents) to avoid floating-point error. Currency is the
// leading symbol, or "£" if none was given.
type Amount struct {
	Currency string
	Units    int64
}

// String renders the amount as "<currency> <whole>.<fraction>", matching
// CurrencyAmount.__str__ in the original.
func (a Amount) String() string {
	whole := a.Units / 100
	frac := a.Units % 100
	sign := " "
	if whole < 0 {
		sign = "-"
		whole = -whole
	}
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, a.Currency, whole, frac)
}

const defaultCurrency = "£"

// ParseAmount parses a tag value such as "$12.34" or "1,234.56" into an
// Amount. The fractional part is required and fixes the number of lowest
// units per whole unit (".5" means 5 tenths, not 50 hundredths).
func ParseAmount(raw string) (Amount, error) {
	currency := defaultCurrency
	value := raw
	if len(value) > 0 && !(value[0] >= '0' && value[0] <= '9') {
		currency = value[:1]
		value = value[1:]
	}

	whole, frac, ok := strings.Cut(value, ".")
	if !ok {
		return Amount{}, errs.New(errs.ManifestError, "currency amount %q is missing a fractional part", raw)
	}
	whole = strings.ReplaceAll(whole, ",", "")

	wholeUnits, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Amount{}, errs.Wrap(errs.ManifestError, err, "parsing currency amount %q", raw)
	}
	fracUnits, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Amount{}, errs.Wrap(errs.ManifestError, err, "parsing currency amount %q", raw)
	}

	scale := int64(1)
	for i := 0; i < len(frac); i++ {
		scale *= 10
	}
	return Amount{Currency: currency, Units: wholeUnits*scale + fracUnits}, nil
}
