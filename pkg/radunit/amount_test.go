package radunit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAmountString checks the human readable rendering of amounts.
func TestAmountString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		amount   Amount
		expected string
	}{
		{
			name:     "whole tokens",
			amount:   SubUnitsOf(200000, AssetTEST),
			expected: "2 TEST",
		},
		{
			name:     "fractional tokens",
			amount:   SubUnitsOf(150000, AssetTEST),
			expected: "1.5 TEST",
		},
		{
			name:     "single sub-unit",
			amount:   SubUnitsOf(1, AssetTEST),
			expected: "0.00001 TEST",
		},
		{
			name:     "zero",
			amount:   Zero(AssetTEST),
			expected: "0 TEST",
		},
		{
			name:     "negative",
			amount:   SubUnitsOf(-50000, AssetTEST),
			expected: "-0.5 TEST",
		},
		{
			name:     "indivisible asset",
			amount:   SubUnitsOf(42, AssetPOW),
			expected: "42 POW",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, tc.amount.String())
		})
	}
}

// TestAssetID checks that asset identifiers only depend on the ISO code.
func TestAssetID(t *testing.T) {
	t.Parallel()

	require.Equal(t, AssetTEST.ID(), NewAsset("TEST", 10).ID())
	require.NotEqual(t, AssetTEST.ID(), AssetPOW.ID())

	// A broken sub-unit count is clamped so rendering never divides by
	// zero.
	require.Equal(t, int64(1), NewAsset("BAD", 0).SubUnits)
}

// TestAmountAdd checks that amounts add up in sub-units.
func TestAmountAdd(t *testing.T) {
	t.Parallel()

	sum := SubUnitsOf(10, AssetTEST).Add(SubUnitsOf(5, AssetTEST))
	require.Equal(t, int64(15), sum.SubUnits)
	require.Equal(t, AssetTEST, sum.Asset)
	require.False(t, sum.IsZero())
	require.True(t, Zero(AssetTEST).IsZero())
}
