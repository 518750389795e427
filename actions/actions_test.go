package actions

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/data"
	"github.com/nadam/radixwallet/pkg/radunit"
	"github.com/stretchr/testify/require"
)

func newTestAddress(t *testing.T) address.Address {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return address.FromPublicKey(1, key.PubKey())
}

// TestTransferTokensString checks the printable form of transfers.
func TestTransferTokensString(t *testing.T) {
	t.Parallel()

	from, to := newTestAddress(t), newTestAddress(t)
	amount := radunit.SubUnitsOf(150000, radunit.AssetTEST)

	plain, err := NewTransferTokens(from, to, amount)
	require.NoError(t, err)
	require.Equal(
		t, "- "+from.String()+" -> "+to.String()+" 1.5 TEST",
		plain.String(),
	)
	require.True(t, plain.Timestamp().IsNone())
	require.True(t, plain.Attachment().IsNone())

	attachment, err := data.NewData([]byte("hi"))
	require.NoError(t, err)

	ts := time.UnixMilli(1234)
	full, err := NewTransferTokens(
		from, to, amount, WithTimestamp(ts), WithAttachment(attachment),
	)
	require.NoError(t, err)
	require.Equal(
		t, "1234 "+from.String()+" -> "+to.String()+
			" 1.5 TEST data(2B)",
		full.String(),
	)
	require.Equal(t, ts, full.Timestamp().UnwrapOr(time.Time{}))
}

// TestTransferTokensInvalidAmount checks that only positive amounts are
// accepted.
func TestTransferTokensInvalidAmount(t *testing.T) {
	t.Parallel()

	from, to := newTestAddress(t), newTestAddress(t)
	for _, n := range []int64{0, -1} {
		_, err := NewTransferTokens(
			from, to, radunit.SubUnitsOf(n, radunit.AssetTEST),
		)
		require.ErrorIs(t, err, ErrInvalidAmount)
	}
}

// TestDataStore checks the destinations of a data store action.
func TestDataStore(t *testing.T) {
	t.Parallel()

	d, err := data.NewData([]byte("x"))
	require.NoError(t, err)

	_, err = NewDataStore(d)
	require.ErrorIs(t, err, ErrNoDestination)

	addr := newTestAddress(t)
	action, err := NewDataStore(d, addr)
	require.NoError(t, err)
	require.Len(t, action.Addresses(), 1)
	require.Same(t, d, action.Data())
}
