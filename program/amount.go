package program

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseUSDC converts a USDC decimal string (e.g. "29.99") to base units.
// Exact decimal math - amounts with more than 6 fractional digits are rejected
// instead of silently rounded.
func ParseUSDC(amount string) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid USDC amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative USDC amount %q", amount)
	}
	scaled := d.Shift(USDCDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("USDC amount %q has more than %d decimal places", amount, USDCDecimals)
	}
	if scaled.GreaterThan(decimal.NewFromUint64(^uint64(0))) {
		return 0, fmt.Errorf("USDC amount %q out of range", amount)
	}
	return scaled.BigInt().Uint64(), nil
}

// FormatUSDC converts base units back to a USDC decimal string
func FormatUSDC(baseUnits uint64) string {
	return decimal.NewFromUint64(baseUnits).Shift(-USDCDecimals).StringFixed(2)
}

// GeneratePaymentID returns a fresh globally-unique payment identifier.
// Fits within MaxIDLength: "pay_" + 32 hex chars.
func GeneratePaymentID() string {
	return "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GeneratePayoutID returns a fresh globally-unique payout identifier
func GeneratePayoutID() string {
	return "out_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
