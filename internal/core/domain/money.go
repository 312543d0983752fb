package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits amounts are stored with.
const AmountScale = 8

// amountIntDigits is the number of integer digits a NUMERIC(36, 8) column holds.
const amountIntDigits = 28

// MaxAmount is the largest amount or balance the ledger can store.
var MaxAmount = decimal.RequireFromString("9999999999999999999999999999.99999999")

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// IsCurrencyCode reports whether code looks like an ISO-4217 alpha code.
func IsCurrencyCode(code string) bool {
	return currencyCodeRe.MatchString(code)
}

// IsValidAmount reports whether v is strictly positive, at most MaxAmount and
// representable with AmountScale fractional digits.
func IsValidAmount(v decimal.Decimal) bool {
	if !v.IsPositive() {
		return false
	}
	// Bound the magnitude from coefficient length and exponent first, so
	// values like 1e2000000 never get rescaled.
	intDigits := v.NumDigits() + int(v.Exponent())
	if intDigits > amountIntDigits || intDigits <= -AmountScale {
		return false
	}
	return v.LessThanOrEqual(MaxAmount) && v.Equal(v.Truncate(AmountScale))
}
