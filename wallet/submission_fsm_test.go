package wallet

import (
	"testing"

	"github.com/nadam/radixwallet/ledger"
	"github.com/stretchr/testify/require"
)

// TestSubmissionMachineHappyPath checks the success path.
func TestSubmissionMachineHappyPath(t *testing.T) {
	t.Parallel()

	m := newSubmissionMachine()
	require.Equal(t, pendingState, m.current())

	for _, s := range []ledger.SubmissionState{
		ledger.Created, ledger.Submitting, ledger.Submitted, ledger.Stored,
	} {
		require.True(t, m.advance(s), s.String())
		require.Equal(t, s.String(), m.current())
	}
}

// TestSubmissionMachineForwardOnly checks that transitions never go back,
// never repeat and never leave a terminal state.
func TestSubmissionMachineForwardOnly(t *testing.T) {
	t.Parallel()

	m := newSubmissionMachine()
	require.True(t, m.advance(ledger.Created))
	require.True(t, m.advance(ledger.Submitted))

	// Backwards and repeated moves are refused.
	require.False(t, m.advance(ledger.Submitting))
	require.False(t, m.advance(ledger.Submitted))
	require.False(t, m.advance(ledger.Created))

	require.True(t, m.advance(ledger.Collision))

	// Nothing leaves a terminal state.
	for _, s := range submissionStates {
		require.False(t, m.advance(s), s.String())
	}
	require.Equal(t, "COLLISION", m.current())
}

// TestSubmissionMachineLocalFailure checks that a submission may fail
// before it was sent.
func TestSubmissionMachineLocalFailure(t *testing.T) {
	t.Parallel()

	for _, s := range []ledger.SubmissionState{
		ledger.ValidationError, ledger.NetworkError,
	} {
		m := newSubmissionMachine()
		require.True(t, m.advance(s))
		require.False(t, m.advance(ledger.Stored))
	}
}
