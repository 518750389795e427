package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/nadam/radixwallet/actions"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/data"
	"github.com/nadam/radixwallet/ledger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pipelineHarness struct {
	alice     testAccount
	bob       testAccount
	spendable *mockSpendable
	submitter *mockSubmitter
	pipeline  *Pipeline
}

func newPipelineHarness(t *testing.T, difficulty uint8) *pipelineHarness {
	t.Helper()

	h := &pipelineHarness{
		alice:     newTestAccount(t),
		bob:       newTestAccount(t),
		spendable: &mockSpendable{},
		submitter: &mockSubmitter{},
	}

	c := clock.NewTestClock(testTime)
	h.pipeline = NewPipeline(PipelineConfig{
		Magic:      testMagic,
		Difficulty: difficulty,
		Translator: &Translators{
			Transfer: NewTokenTransferTranslator(h.spendable, c),
			Store:    NewDataStoreTranslator(c),
		},
		Identity:  h.alice.id,
		Submitter: h.submitter,
	})
	t.Cleanup(h.pipeline.Stop)

	return h
}

func (h *pipelineHarness) transfer(t *testing.T, n int64) actions.Action {
	t.Helper()

	a, err := actions.NewTransferTokens(h.alice.addr, h.bob.addr, testAmount(n))
	require.NoError(t, err)

	return a
}

func (h *pipelineHarness) store(t *testing.T) actions.Action {
	t.Helper()

	d, err := data.NewData([]byte("hello"))
	require.NoError(t, err)

	a, err := actions.NewDataStore(d, h.bob.addr)
	require.NoError(t, err)

	return a
}

func updatesOf(states ...ledger.SubmissionState) chan ledger.SubmissionUpdate {
	ch := make(chan ledger.SubmissionUpdate, len(states))
	for _, s := range states {
		ch <- ledger.SubmissionUpdate{State: s}
	}
	close(ch)

	return ch
}

// TestPipelineStoresAtom checks the updates of a successful submission and
// that the submitted atom carries a valid proof of work and signature.
func TestPipelineStoresAtom(t *testing.T) {
	t.Parallel()

	// Arrange.
	h := newPipelineHarness(t, testDifficulty)

	var submitted *atom.Signed
	h.submitter.On("SubmitAtom", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			submitted = args.Get(1).(*atom.Signed)
		}).
		Return(updatesOf(
			ledger.Submitting, ledger.Submitted, ledger.Stored,
		), nil).Once()

	// Act.
	r := h.pipeline.Execute(context.Background(), h.store(t))
	updates := collect(t, r)

	// Assert.
	require.Equal(t, []ledger.SubmissionState{
		ledger.Created, ledger.Submitting, ledger.Submitted,
		ledger.Stored,
	}, states(updates))
	require.NoError(t, r.Await(context.Background()))

	require.NotNil(t, submitted)
	for _, u := range updates {
		require.Equal(t, submitted.Hash(), u.Hash)
	}

	a := submitted.Atom()
	require.Equal(t, atom.KindPayload, a.Kind)
	require.NoError(t, atom.VerifyWork(a, testMagic, testDifficulty))
	require.NoError(t, submitted.Verify(h.alice.id.PublicKey()))
	h.submitter.AssertExpectations(t)
}

// TestPipelineInsufficientFunds checks that a transfer the sender cannot pay
// fails validation without being submitted.
func TestPipelineInsufficientFunds(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, testDifficulty)
	h.spendable.On("Spendable", mock.Anything, h.alice.addr).
		Return(h.alice.snapshot(5), nil)

	r := h.pipeline.Execute(context.Background(), h.transfer(t, 10))
	err := r.Await(context.Background())

	require.ErrorIs(t, err, ErrInsufficientFunds)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	require.Equal(t, ledger.ValidationError, subErr.State)
	require.Equal(t, []ledger.SubmissionState{ledger.ValidationError},
		states(collect(t, r)))
	h.submitter.AssertNotCalled(t, "SubmitAtom", mock.Anything,
		mock.Anything)
}

// TestPipelineSubmitFailure checks the network errors raised by the
// submitter.
func TestPipelineSubmitFailure(t *testing.T) {
	t.Parallel()

	offline := errors.New("node offline")

	testCases := []struct {
		name   string
		setup  func(s *mockSubmitter)
		states []ledger.SubmissionState
		cause  error
	}{
		{
			name: "submit error",
			setup: func(s *mockSubmitter) {
				s.On("SubmitAtom", mock.Anything,
					mock.Anything).Return(nil, offline)
			},
			states: []ledger.SubmissionState{
				ledger.Created, ledger.NetworkError,
			},
			cause: offline,
		},
		{
			name: "stream ends early",
			setup: func(s *mockSubmitter) {
				s.On("SubmitAtom", mock.Anything,
					mock.Anything).Return(
					updatesOf(ledger.Submitting), nil,
				)
			},
			states: []ledger.SubmissionState{
				ledger.Created, ledger.Submitting,
				ledger.NetworkError,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newPipelineHarness(t, testDifficulty)
			tc.setup(h.submitter)

			r := h.pipeline.Execute(context.Background(), h.store(t))
			require.Equal(t, tc.states, states(collect(t, r)))

			err := r.Await(context.Background())
			var subErr *SubmissionError
			require.ErrorAs(t, err, &subErr)
			require.Equal(t, ledger.NetworkError, subErr.State)
			if tc.cause != nil {
				require.ErrorIs(t, err, tc.cause)
			}
		})
	}
}

// TestPipelineCancelDuringWork checks that canceling a result stops the proof
// of work search.
func TestPipelineCancelDuringWork(t *testing.T) {
	t.Parallel()

	// Arrange: a difficulty that is never reached.
	h := newPipelineHarness(t, 255)

	// Act.
	r := h.pipeline.Execute(context.Background(), h.store(t))
	r.Cancel()

	// Assert.
	err := r.Await(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	require.Equal(t, ledger.NetworkError, subErr.State)
	h.submitter.AssertNotCalled(t, "SubmitAtom", mock.Anything,
		mock.Anything)
}

// TestPipelineStopped checks that a stopped pipeline fails new submissions.
func TestPipelineStopped(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, testDifficulty)
	h.pipeline.Stop()

	r := h.pipeline.Execute(context.Background(), h.store(t))
	require.ErrorIs(t, r.Await(context.Background()), ErrPipelineStopped)
}
