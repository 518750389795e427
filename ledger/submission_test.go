package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSubmissionStateTerminal checks which states end a submission.
func TestSubmissionStateTerminal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		state    SubmissionState
		terminal bool
		name     string
	}{
		{Created, false, "CREATED"},
		{Submitting, false, "SUBMITTING"},
		{Submitted, false, "SUBMITTED"},
		{Stored, true, "STORED"},
		{Collision, true, "COLLISION"},
		{ValidationError, true, "VALIDATION_ERROR"},
		{NetworkError, true, "NETWORK_ERROR"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.terminal, tc.state.IsTerminal(), tc.name)
		require.Equal(t, tc.name, tc.state.String())
		require.Equal(
			t, tc.terminal,
			SubmissionUpdate{State: tc.state}.IsComplete(),
		)
	}

	require.Equal(t, "UNKNOWN(42)", SubmissionState(42).String())
}

// TestSubmissionUpdateString checks the log rendering of updates.
func TestSubmissionUpdateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "STORED", SubmissionUpdate{State: Stored}.String())
	require.Equal(t, "COLLISION: input spent", SubmissionUpdate{
		State:   Collision,
		Message: "input spent",
	}.String())
}
