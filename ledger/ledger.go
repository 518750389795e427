// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger defines the interface of the ledger node the wallet talks
// to and the values streamed by it.
package ledger

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
)

// Observation is one item of a per-address atom stream.
type Observation struct {
	// Atom is the observed atom. It is nil for a head marker.
	Atom *atom.Atom

	// Head marks that every atom known to the node when the stream was
	// opened has been delivered.
	Head bool
}

// Ledger is the remote ledger node.
type Ledger interface {
	// Magic returns the network magic of the node.
	Magic() uint32

	// AddressFromPublicKey returns the address of pub on the network of
	// the node.
	AddressFromPublicKey(pub *btcec.PublicKey) address.Address

	// AtomsForAddress streams every atom delivered to addr whose kind
	// matches the filter: first the stored history, then a head marker,
	// then new atoms as they are stored. Atoms may be delivered more
	// than once. The stream is closed once ctx is done.
	AtomsForAddress(ctx context.Context, addr address.Address,
		kind atom.Kind) (<-chan Observation, error)

	// SubmitAtom submits the atom and streams the submission progress.
	// The stream is closed after a terminal update or once ctx is done.
	SubmitAtom(ctx context.Context,
		a *atom.Signed) (<-chan SubmissionUpdate, error)
}
