package main

import (
	"strings"
	"testing"

	"github.com/nadam/radixwallet/atom"
	"github.com/stretchr/testify/require"
)

// TestParseSeed checks the accepted seed forms.
func TestParseSeed(t *testing.T) {
	t.Parallel()

	seed, err := parseSeed(strings.Repeat("ab", atom.HashSize))
	require.NoError(t, err)
	require.Equal(t, byte(0xab), seed[0])
	require.Equal(t, byte(0xab), seed[atom.HashSize-1])

	r1, err := parseSeed("")
	require.NoError(t, err)
	r2, err := parseSeed("")
	require.NoError(t, err)
	require.NotEqual(t, r1, r2)

	_, err = parseSeed("abcd")
	require.ErrorContains(t, err, "want 32")

	_, err = parseSeed("zz")
	require.Error(t, err)
}
