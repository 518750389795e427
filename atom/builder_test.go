package atom

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testDifficulty keeps the proof-of-work search short in tests.
const testDifficulty = 8

var testAsset = EUIDOf([]byte("TEST"))

func newTestKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return key
}

// TestBuildTransactionAtomWithPayload checks that the payload and particles
// set on the builder end up in the built atom.
func TestBuildTransactionAtomWithPayload(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	output := NewOutput(testAsset, 1, key.PubKey(), 0)

	b := NewBuilder().Kind(KindTransaction)
	require.NoError(t, b.AddParticle(output))
	require.NoError(t, b.SetPayload([]byte("Hello")))

	a := b.Build().Atom()
	require.Equal(t, KindTransaction, a.Kind)
	require.Equal(t, "Hello", string(a.Payload))
	require.Len(t, a.Particles, 1)
	require.True(t, a.Particles[0].Equal(output))
}

// TestMultipleBuildsCreateSameAtom checks that building twice without a
// mutation in between yields the same hash.
func TestMultipleBuildsCreateSameAtom(t *testing.T) {
	t.Parallel()

	b := NewBuilder().
		Kind(KindPayload).
		ApplicationID("Test").
		AddDestination(EUIDOf([]byte{1}))
	require.NoError(t, b.SetPayload([]byte("Hello")))

	atom1 := b.Build()
	atom2 := b.Build()

	require.Equal(t, atom1.Hash(), atom2.Hash())
	require.True(t, atom1.Atom().Equal(atom2.Atom()))
}

// TestIdenticalBuildersHashEqual checks, for arbitrary configurations, that
// two builders configured identically produce equal hashes and that later
// mutations do not leak into atoms that were already built.
func TestIdenticalBuildersHashEqual(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)

	rapid.Check(t, func(rt *rapid.T) {
		quantities := rapid.SliceOfN(
			rapid.Int64Range(1, 1_000_000), 0, 8,
		).Draw(rt, "quantities")
		payload := rapid.SliceOf(rapid.Byte()).Draw(rt, "payload")
		timestamp := rapid.Int64().Draw(rt, "timestamp")

		configure := func() *Builder {
			b := NewBuilder().Timestamp(timestamp)
			for i, q := range quantities {
				p := NewOutput(
					testAsset, q, key.PubKey(), uint64(i),
				)
				require.NoError(rt, b.AddParticle(p))
			}
			require.NoError(rt, b.SetPayload(payload))

			return b
		}

		b1, b2 := configure(), configure()
		u1, u2 := b1.Build(), b2.Build()
		require.Equal(rt, u1.Hash(), u2.Hash())

		// Mutating the builder afterwards must not change the
		// atom built before.
		extra := NewOutput(testAsset, 7, key.PubKey(), 1<<32)
		require.NoError(rt, b1.AddParticle(extra))
		require.Equal(rt, u2.Hash(), u1.Atom().Hash())
		require.NotEqual(rt, u1.Hash(), b1.Build().Hash())
	})
}

// TestAddParticleValidation checks the particle invariants enforced by the
// builder.
func TestAddParticleValidation(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	output := NewOutput(testAsset, 10, key.PubKey(), 1)

	testCases := []struct {
		name     string
		particle Particle
	}{
		{
			name: "zero quantity",
			particle: NewOutput(
				testAsset, 0, key.PubKey(), 1,
			),
		},
		{
			name: "no owners",
			particle: Particle{
				Asset:    testAsset,
				Quantity: 1,
			},
		},
		{
			name: "input without reference",
			particle: NewOutput(
				testAsset, -1, key.PubKey(), 1,
			),
		},
		{
			name: "output with reference",
			particle: Particle{
				Asset:    testAsset,
				Quantity: 1,
				Owners:   output.Owners,
				Spends:   output.ID(),
			},
		},
		{
			name: "fee particle",
			particle: Particle{
				Kind:     KindFee,
				Asset:    FeeAsset,
				Quantity: 1,
				Owners:   output.Owners,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := NewBuilder().AddParticle(tc.particle)
			require.ErrorIs(t, err, ErrInvalidParticle)
		})
	}

	// Arrange: a builder already holding the output.
	b := NewBuilder()
	require.NoError(t, b.AddParticle(output))

	// Act & Assert: adding it again is a duplicate, spending it is not.
	require.ErrorIs(t, b.AddParticle(output), ErrInvalidParticle)
	require.NoError(t, b.AddParticle(output.Spend()))
}

// TestSetPayloadTwice checks that a payload can only be set once.
func TestSetPayloadTwice(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	require.NoError(t, b.SetPayload([]byte("a")))
	require.ErrorIs(t, b.SetPayload([]byte("b")), ErrPayloadAlreadySet)
	require.Equal(t, "a", string(b.Build().Atom().Payload))
}

// TestBuildWithFee checks that the fee particle satisfies the difficulty and
// that the builder is left untouched.
func TestBuildWithFee(t *testing.T) {
	t.Parallel()

	const magic = 0x1234

	key := newTestKey(t)
	b := NewBuilder(WithDifficulty(testDifficulty))
	require.NoError(t, b.AddParticle(
		NewOutput(testAsset, 5, key.PubKey(), 1),
	))
	before := b.Build().Hash()

	u, err := b.BuildWithFee(context.Background(), magic, key.PubKey())
	require.NoError(t, err)

	a := u.Atom()
	fee, ok := a.Fee()
	require.True(t, ok)
	require.Equal(t, FeeAsset, fee.Asset)
	require.Positive(t, fee.Quantity)
	require.True(t, fee.OwnedBy(KeyEUID(key.PubKey())))

	require.NoError(t, VerifyWork(a, magic, testDifficulty))
	require.ErrorIs(t, VerifyWork(a, magic+1, 32), ErrInsufficientWork)

	// The builder still produces the fee-less atom.
	require.Equal(t, before, b.Build().Hash())
}

// TestBuildWithFeeCanceled checks that a canceled context stops the search.
func TestBuildWithFeeCanceled(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)

	// A difficulty of 255 bits is never reached, so only cancellation
	// can end the search.
	b := NewBuilder(WithDifficulty(255))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.BuildWithFee(ctx, 1, key.PubKey())
	require.ErrorIs(t, err, context.Canceled)
}

// TestVerifyWorkMissingFee checks that an atom without fee is rejected.
func TestVerifyWorkMissingFee(t *testing.T) {
	t.Parallel()

	a := NewBuilder().Build().Atom()
	require.ErrorIs(t, VerifyWork(a, 1, 1), ErrMissingFee)
}

// TestLeadingZeroBits checks the bit counting used by the difficulty test.
func TestLeadingZeroBits(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, leadingZeroBits([]byte{0x80}))
	require.Equal(t, 7, leadingZeroBits([]byte{0x01}))
	require.Equal(t, 12, leadingZeroBits([]byte{0x00, 0x0f}))
	require.Equal(t, 16, leadingZeroBits([]byte{0x00, 0x00}))
}
