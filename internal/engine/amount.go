package engine

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseAmount converts user-entered decimal text into the token's smallest
// unit. The gate comparisons downstream run on the exact integer, never on
// the floating staging value: shifting by the decimal exponent happens in
// decimal arithmetic and must land on a whole number.
func ParseAmount(text string, decimals int32) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty amount")
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, errors.Wrap(err, "parse amount")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Errorf("amount must be positive, got %s", d.String())
	}

	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, errors.Errorf("amount %s exceeds %d decimal places", d.String(), decimals)
	}

	return shifted.BigInt(), nil
}
