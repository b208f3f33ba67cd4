package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits an amount may carry.
const AmountScale = 6

// MaxAmount is the exclusive upper bound of a single requested, interest or
// deposit amount. Nine integer digits plus six fractional ones stay within
// the 15 significant digits a decimal column keeps on every backend.
var MaxAmount = decimal.New(1, 9)

// CheckAmount rejects amounts that cannot be stored exactly.
func CheckAmount(name string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidInput, name, AmountScale)
	}
	if d.Abs().GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("%w: %s must be below %s", ErrInvalidInput, name, MaxAmount)
	}
	return nil
}
