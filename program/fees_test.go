package program

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		feeBps  uint64
		wantFee uint64
		wantNet uint64
	}{
		{"typical", 20_000, 250, 500, 19_500},
		{"floor truncation", 10_001, 250, 250, 9_751},
		{"one base unit", 1, 250, 0, 1},
		{"zero amount", 0, 250, 0, 0},
		{"zero fee", 1_000_000, 0, 0, 1_000_000},
		{"full fee", 1_000_000, 10_000, 1_000_000, 0},
		{"max amount full fee", math.MaxUint64, 10_000, math.MaxUint64, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net, err := SplitAmount(tt.amount, tt.feeBps)
			require.NoError(t, err)
			require.Equal(t, tt.wantFee, fee)
			require.Equal(t, tt.wantNet, net)
		})
	}
}

func TestSplitAmountConservation(t *testing.T) {
	amounts := []uint64{1, 9_999, 10_000, 10_001, 123_456_789, math.MaxUint64 - 1, math.MaxUint64}
	rates := []uint64{0, 1, 250, 9_999, 10_000}

	for _, amount := range amounts {
		for _, feeBps := range rates {
			fee, net, err := SplitAmount(amount, feeBps)
			require.NoError(t, err)
			require.Equal(t, amount, fee+net, "amount=%d feeBps=%d", amount, feeBps)
			require.LessOrEqual(t, fee, amount, "amount=%d feeBps=%d", amount, feeBps)
		}
	}
}

func TestSplitAmountRejectsExcessFeeBps(t *testing.T) {
	_, _, err := SplitAmount(20_000, 10_001)
	requireProgramErr(t, err, ErrInvalidFeeBps)
}

func TestValidateID(t *testing.T) {
	require.True(t, ValidateID("m"))
	require.True(t, ValidateID("merchant-001"))
	require.True(t, ValidateID(strings.Repeat("a", MaxIDLength)))

	require.False(t, ValidateID(""))
	require.False(t, ValidateID(strings.Repeat("a", MaxIDLength+1)))
}
