// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transfers reduces the atom stream of an address into its token
// transfer history.
package transfers

import (
	"slices"

	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/pkg/radunit"
)

// History accepts the atoms moving one asset in or out of one address in
// arrival order. An atom spending an input already spent by an accepted atom
// is rejected for good: the first one seen wins.
//
// A History is not safe for concurrent use; it is meant to be fed by the
// single goroutine reading the address stream.
type History struct {
	addr  address.Address
	asset radunit.Asset

	applied  map[atom.EUID]struct{}
	consumed map[atom.EUID]atom.EUID
	accepted []*atom.Atom
}

// NewHistory creates an empty history of asset transfers of addr.
func NewHistory(addr address.Address, asset radunit.Asset) *History {
	return &History{
		addr:     addr,
		asset:    asset,
		applied:  make(map[atom.EUID]struct{}),
		consumed: make(map[atom.EUID]atom.EUID),
	}
}

// Accept folds the atom and returns the transfers it adds to the history.
// Redelivered atoms, conflicting atoms and atoms not moving the asset of the
// address add nothing.
func (h *History) Accept(a *atom.Atom) []*atom.Atom {
	id := a.ID()
	if _, ok := h.applied[id]; ok {
		return nil
	}
	h.applied[id] = struct{}{}

	if !h.touches(a) {
		return nil
	}

	inputs := a.Inputs()
	for _, p := range inputs {
		if winner, ok := h.consumed[p.Spends]; ok {
			log.Debugf("Dropping atom %v: input %v already spent by "+
				"atom %v", id, p.Spends, winner)

			return nil
		}
	}

	for _, p := range inputs {
		h.consumed[p.Spends] = id
	}

	c := a.Copy()
	h.accepted = append(h.accepted, c)

	return []*atom.Atom{c}
}

// Accepted returns the accepted atoms in acceptance order.
func (h *History) Accepted() []*atom.Atom {
	return slices.Clone(h.accepted)
}

// touches returns true if the atom has a particle of the asset owned by the
// address.
func (h *History) touches(a *atom.Atom) bool {
	asset, owner := h.asset.ID(), h.addr.EUID()

	return slices.ContainsFunc(a.Particles, func(p atom.Particle) bool {
		return !p.IsFee() && p.Asset == asset && p.OwnedBy(owner)
	})
}
