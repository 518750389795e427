// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spendable

import (
	"fmt"

	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/pkg/radunit"
)

// Snapshot is the unspent set of an address after folding every atom
// observed so far. Snapshots are shared between subscribers and must not be
// modified.
type Snapshot struct {
	// Address is the address the particles belong to.
	Address address.Address

	// Unspent are the outputs owned by the address that no observed atom
	// spends, in the order they were observed.
	Unspent []atom.Particle

	// Synced is set once the ledger delivered all the history it knew
	// when the address stream was opened.
	Synced bool

	// Seq increases with every snapshot of the address.
	Seq uint64
}

// Of returns the unspent particles of the given asset in arrival order.
func (s Snapshot) Of(asset atom.EUID) []atom.Particle {
	var particles []atom.Particle
	for _, p := range s.Unspent {
		if p.Asset == asset {
			particles = append(particles, p)
		}
	}

	return particles
}

// Balance sums the unspent particles of the asset.
func (s Snapshot) Balance(asset radunit.Asset) radunit.Amount {
	var total int64
	for _, p := range s.Of(asset.ID()) {
		total += p.Quantity
	}

	return radunit.SubUnitsOf(total, asset)
}

// String returns a short description of the snapshot for logging.
func (s Snapshot) String() string {
	return fmt.Sprintf("snapshot(addr=%v, seq=%d, unspent=%d, synced=%v)",
		s.Address, s.Seq, len(s.Unspent), s.Synced)
}
