// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/nadam/radixwallet/ledger"
)

// pendingState is the state of a submission before its first update.
const pendingState = "PENDING"

// submissionStates lists the states in the order a submission moves
// through them. Every state may move to any later one, except that nothing
// leaves a terminal state.
var submissionStates = []ledger.SubmissionState{
	ledger.Created,
	ledger.Submitting,
	ledger.Submitted,
	ledger.Stored,
	ledger.Collision,
	ledger.ValidationError,
	ledger.NetworkError,
}

// rank orders the states by progress. All terminal states share the last
// rank.
func rank(s ledger.SubmissionState) int {
	if s.IsTerminal() {
		return int(ledger.Stored)
	}

	return int(s)
}

// newSubmissionFSM creates the state machine of one submission. The event
// moving to a state is named after that state.
func newSubmissionFSM() *fsm.FSM {
	var events fsm.Events
	for _, dst := range submissionStates {
		src := []string{pendingState}
		for _, s := range submissionStates {
			if !s.IsTerminal() && rank(s) < rank(dst) {
				src = append(src, s.String())
			}
		}

		events = append(events, fsm.EventDesc{
			Name: dst.String(),
			Src:  src,
			Dst:  dst.String(),
		})
	}

	return fsm.NewFSM(pendingState, events, fsm.Callbacks{})
}

// submissionMachine tracks the state of one submission.
type submissionMachine struct {
	fsm *fsm.FSM
}

func newSubmissionMachine() *submissionMachine {
	return &submissionMachine{fsm: newSubmissionFSM()}
}

// advance moves the machine to the given state. It returns false if the
// move would go backwards, repeat a state or leave a terminal state.
func (m *submissionMachine) advance(to ledger.SubmissionState) bool {
	if !m.fsm.Can(to.String()) {
		return false
	}

	// The machine has no callbacks, so the context is unused.
	return m.fsm.Event(context.Background(), to.String()) == nil
}

// current returns the name of the current state.
func (m *submissionMachine) current() string {
	return m.fsm.Current()
}
