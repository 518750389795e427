// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/internal/broadcast"
	"github.com/nadam/radixwallet/ledger"
)

// ErrResultPending is returned by Outcome before the submission completed.
var ErrResultPending = errors.New("submission not complete")

// SubmissionError is the failure of a submission. It carries the terminal
// state, its message and the local cause, if any.
type SubmissionError struct {
	// State is the terminal failure state.
	State ledger.SubmissionState

	// Message is the reason given with the terminal update.
	Message string

	// Err is the local error that ended the submission, if any.
	Err error
}

// Error returns the terminal state and message.
func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%v: %s", e.State, e.Message)
}

// Unwrap returns the local cause.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Result is the handle of one submission. The submission runs once, however
// many subscribers follow it.
type Result struct {
	id uuid.UUID

	updates *broadcast.Hub[ledger.SubmissionUpdate]
	machine *submissionMachine
	cancel  context.CancelFunc

	mu       sync.Mutex
	terminal fn.Option[ledger.SubmissionUpdate]
	done     chan struct{}
}

// newResult creates the result of a submission whose work is canceled by
// cancel.
func newResult(cancel context.CancelFunc) *Result {
	r := &Result{
		id: uuid.New(),
		updates: broadcast.NewHub[ledger.SubmissionUpdate](
			broadcast.ReplayAll,
		),
		machine: newSubmissionMachine(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Start never fails on a fresh hub.
	_ = r.updates.Start()

	return r
}

// ID returns the identifier of the result used in logs.
func (r *Result) ID() uuid.UUID {
	return r.id
}

// Updates returns a client receiving every update of the submission from
// the start. Its channel is closed after the terminal update.
func (r *Result) Updates() (*broadcast.Client[ledger.SubmissionUpdate],
	error) {

	return r.updates.Subscribe()
}

// Done returns a channel closed once the submission reached a terminal
// state.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Await blocks until the submission completes. It returns nil iff the atom
// was stored and a *SubmissionError otherwise.
func (r *Result) Await(ctx context.Context) error {
	select {
	case <-r.done:
		_, err := r.Outcome().Unpack()
		return err

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcome returns the stored update, or the failure of the submission. It
// fails with ErrResultPending while the submission runs.
func (r *Result) Outcome() fn.Result[ledger.SubmissionUpdate] {
	r.mu.Lock()
	terminal := r.terminal
	r.mu.Unlock()

	if terminal.IsNone() {
		return fn.Err[ledger.SubmissionUpdate](ErrResultPending)
	}

	u := terminal.UnwrapOr(ledger.SubmissionUpdate{})
	if u.State == ledger.Stored {
		return fn.Ok(u)
	}

	return fn.Err[ledger.SubmissionUpdate](&SubmissionError{
		State:   u.State,
		Message: u.Message,
		Err:     u.Err,
	})
}

// Cancel stops the proof-of-work search and the submission stream of this
// result. The result then completes with a network error unless it already
// completed.
func (r *Result) Cancel() {
	r.cancel()
}

// advance applies an update. Updates that do not move the submission
// forward are dropped and false is returned.
func (r *Result) advance(u ledger.SubmissionUpdate) bool {
	r.mu.Lock()
	if r.terminal.IsSome() || !r.machine.advance(u.State) {
		current := r.machine.current()
		r.mu.Unlock()

		log.Debugf("Result %v: dropping update %v in state %s", r.id, u,
			current)

		return false
	}

	if u.IsComplete() {
		r.terminal = fn.Some(u)
	}
	r.mu.Unlock()

	log.Debugf("Result %v: %v", r.id, u)

	// Publishing only fails once the hub is closed, which happens after
	// the terminal update below.
	_ = r.updates.Publish(u)

	if u.IsComplete() {
		r.updates.Close()
		close(r.done)
		r.cancel()
	}

	return true
}
