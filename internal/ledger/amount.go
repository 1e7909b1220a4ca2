package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents caps a single deposit, withdrawal or transfer.
const MaxAmountCents int64 = 1_000_000_000_000_00

var maxAmount = decimal.New(MaxAmountCents, -2)

// Bounds on amount input checked before any decimal arithmetic. Rescaling
// cost grows with the exponent, so "1e2000000000" must never reach it.
const (
	maxAmountLen      = 64
	maxAmountExponent = 14
	minAmountExponent = -maxAmountLen
)

// ParseCents converts a decimal amount string to cents, truncating anything
// past the second decimal place. An empty string is zero.
func ParseCents(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	if len(raw) > maxAmountLen {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return 0, ErrInvalidAmount
	}
	d = d.Truncate(2)
	if d.Abs().GreaterThan(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return d.Shift(2).IntPart(), nil
}

// FormatCents renders cents as a fixed two-decimal string, e.g. "12.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
