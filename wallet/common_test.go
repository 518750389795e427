package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/identity"
	"github.com/nadam/radixwallet/ledger"
	"github.com/nadam/radixwallet/pkg/radunit"
	"github.com/nadam/radixwallet/spendable"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testMagic      = 0x2a
	testDifficulty = 4
	testTimeout    = 10 * time.Second
)

var testTime = time.Unix(1_700_000_000, 0)

// mockSpendable is a mock implementation of SpendableSource.
type mockSpendable struct {
	mock.Mock
}

func (m *mockSpendable) Spendable(ctx context.Context,
	addr address.Address) (spendable.Snapshot, error) {

	args := m.Called(ctx, addr)

	return args.Get(0).(spendable.Snapshot), args.Error(1)
}

// mockSubmitter is a mock implementation of Submitter.
type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) SubmitAtom(ctx context.Context,
	a *atom.Signed) (<-chan ledger.SubmissionUpdate, error) {

	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(chan ledger.SubmissionUpdate), args.Error(1)
}

type testAccount struct {
	id   *identity.KeyIdentity
	addr address.Address
}

func newTestAccount(t *testing.T) testAccount {
	t.Helper()

	id, err := identity.NewKeyIdentity()
	require.NoError(t, err)

	return testAccount{
		id:   id,
		addr: address.FromPublicKey(testMagic, id.PublicKey()),
	}
}

// outputs creates unspent TEST outputs of acc.
func (a testAccount) outputs(quantities ...int64) []atom.Particle {
	particles := make([]atom.Particle, 0, len(quantities))
	for i, q := range quantities {
		particles = append(particles, atom.NewOutput(
			radunit.AssetTEST.ID(), q, a.id.PublicKey(), uint64(i),
		))
	}

	return particles
}

// snapshot returns a synced snapshot holding the outputs of acc.
func (a testAccount) snapshot(quantities ...int64) spendable.Snapshot {
	return spendable.Snapshot{
		Address: a.addr,
		Unspent: a.outputs(quantities...),
		Synced:  true,
	}
}

func testAmount(n int64) radunit.Amount {
	return radunit.SubUnitsOf(n, radunit.AssetTEST)
}

// collect reads the updates of r until its channel closes.
func collect(t *testing.T, r *Result) []ledger.SubmissionUpdate {
	t.Helper()

	client, err := r.Updates()
	require.NoError(t, err)

	var updates []ledger.SubmissionUpdate
	timeout := time.After(testTimeout)
	for {
		select {
		case u, ok := <-client.Updates():
			if !ok {
				return updates
			}
			updates = append(updates, u)

		case <-timeout:
			t.Fatalf("no terminal update, got %v", updates)
		}
	}
}

func states(updates []ledger.SubmissionUpdate) []ledger.SubmissionState {
	s := make([]ledger.SubmissionState, 0, len(updates))
	for _, u := range updates {
		s = append(s, u.State)
	}

	return s
}
