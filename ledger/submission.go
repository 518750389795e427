// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"

	"github.com/nadam/radixwallet/atom"
)

// SubmissionState is the progress of an atom through submission.
type SubmissionState uint8

const (
	// Created is the state of a signed atom not yet sent to the node.
	Created SubmissionState = iota

	// Submitting means the atom is being sent to the node.
	Submitting

	// Submitted means the node received the atom.
	Submitted

	// Stored means the node accepted and stored the atom.
	Stored

	// Collision means the atom spends an input already spent by another
	// stored atom.
	Collision

	// ValidationError means the atom was rejected as invalid.
	ValidationError

	// NetworkError means the submission could not be completed.
	NetworkError
)

// String returns the string representation of a submission state.
func (s SubmissionState) String() string {
	switch s {
	case Created:
		return "CREATED"

	case Submitting:
		return "SUBMITTING"

	case Submitted:
		return "SUBMITTED"

	case Stored:
		return "STORED"

	case Collision:
		return "COLLISION"

	case ValidationError:
		return "VALIDATION_ERROR"

	case NetworkError:
		return "NETWORK_ERROR"

	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// IsTerminal returns true if no transition leaves the state.
func (s SubmissionState) IsTerminal() bool {
	switch s {
	case Stored, Collision, ValidationError, NetworkError:
		return true

	default:
		return false
	}
}

// SubmissionUpdate is one step of a submission.
type SubmissionUpdate struct {
	// State is the reached state.
	State SubmissionState

	// Message is a human readable reason for failure states.
	Message string

	// Hash is the hash of the submitted atom. It is zero when the atom
	// was never built.
	Hash atom.Hash

	// Err is the local cause of a failure, if any.
	Err error
}

// IsComplete returns true if the update carries a terminal state.
func (u SubmissionUpdate) IsComplete() bool {
	return u.State.IsTerminal()
}

// String returns a short description of the update for logging.
func (u SubmissionUpdate) String() string {
	if u.Message == "" {
		return u.State.String()
	}

	return fmt.Sprintf("%v: %s", u.State, u.Message)
}
