package identity

import (
	"context"
	"testing"

	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/data"
	"github.com/stretchr/testify/require"
)

// TestKeyIdentitySign checks that signatures verify against the identity
// key.
func TestKeyIdentitySign(t *testing.T) {
	t.Parallel()

	id, err := NewKeyIdentity()
	require.NoError(t, err)

	u := atom.NewBuilder().Kind(atom.KindPayload).Build()
	signed, err := id.Sign(context.Background(), u)
	require.NoError(t, err)
	require.NoError(t, signed.Verify(id.PublicKey()))

	other, err := NewKeyIdentity()
	require.NoError(t, err)
	require.ErrorIs(
		t, signed.Verify(other.PublicKey()), atom.ErrMissingSignature,
	)
}

// TestKeyIdentityDecrypt checks plain, readable and unreadable data.
func TestKeyIdentityDecrypt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	id, err := NewKeyIdentity()
	require.NoError(t, err)
	other, err := NewKeyIdentity()
	require.NoError(t, err)

	plain, err := data.NewData([]byte("plain"))
	require.NoError(t, err)
	got, err := id.Decrypt(ctx, plain)
	require.NoError(t, err)
	require.Equal(t, "plain", got.String())

	sealed, err := data.NewData(
		[]byte("sealed"), data.WithEncryptionFor(id.PublicKey()),
	)
	require.NoError(t, err)
	got, err = id.Decrypt(ctx, sealed)
	require.NoError(t, err)
	require.Equal(t, "sealed", got.String())

	_, err = other.Decrypt(ctx, sealed)
	require.ErrorIs(t, err, ErrCannotDecrypt)
	require.ErrorIs(t, err, data.ErrNoProtector)
}

// TestKeyIdentityCanceled checks that a done context is honored.
func TestKeyIdentityCanceled(t *testing.T) {
	t.Parallel()

	id, err := NewKeyIdentity()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = id.Sign(ctx, atom.NewBuilder().Build())
	require.ErrorIs(t, err, context.Canceled)
}
