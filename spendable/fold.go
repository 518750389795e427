// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spendable

import (
	"context"
	"slices"

	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/internal/broadcast"
	"github.com/nadam/radixwallet/ledger"
)

// fold reduces the atom stream of one address into its unspent set. All
// state is owned by the run goroutine.
type fold struct {
	addr address.Address
	id   atom.EUID
	hub  *broadcast.Hub[Snapshot]

	seen    map[atom.EUID]struct{}
	spent   map[atom.EUID]struct{}
	unspent []atom.Particle
	synced  bool
	seq     uint64
}

func newFold(addr address.Address) *fold {
	return &fold{
		addr:  addr,
		id:    addr.EUID(),
		hub:   broadcast.NewHub[Snapshot](broadcast.ReplayLatest),
		seen:  make(map[atom.EUID]struct{}),
		spent: make(map[atom.EUID]struct{}),
	}
}

// run folds observations until the stream ends or ctx is done. The first
// snapshot is published right away so subscribers never wait for the
// ledger to know the fold is alive.
func (f *fold) run(ctx context.Context, obs <-chan ledger.Observation) {
	if f.publish() != nil {
		return
	}

	for {
		select {
		case o, ok := <-obs:
			if !ok {
				log.Debugf("Atom stream of %v ended", f.addr)
				f.hub.Close()

				return
			}

			if !f.apply(o) {
				continue
			}

			if f.publish() != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// apply folds one observation and reports whether the snapshot changed.
func (f *fold) apply(o ledger.Observation) bool {
	if o.Head {
		changed := !f.synced
		f.synced = true

		return changed
	}

	a := o.Atom
	if a == nil {
		return false
	}

	id := a.ID()
	if _, ok := f.seen[id]; ok {
		log.Tracef("Skipping redelivered atom %v for %v", id, f.addr)
		return false
	}
	f.seen[id] = struct{}{}

	changed := false
	for _, p := range a.Particles {
		if p.IsFee() {
			continue
		}

		switch {
		case p.IsInput():
			f.spent[p.Spends] = struct{}{}

			n := len(f.unspent)
			f.unspent = slices.DeleteFunc(
				f.unspent, func(u atom.Particle) bool {
					return u.ID() == p.Spends
				},
			)
			changed = changed || n != len(f.unspent)

		case p.IsOutput() && p.OwnedBy(f.id):
			pid := p.ID()
			if _, ok := f.spent[pid]; ok {
				continue
			}
			if slices.ContainsFunc(f.unspent, func(u atom.Particle) bool {
				return u.ID() == pid
			}) {
				continue
			}

			f.unspent = append(f.unspent, p.Copy())
			changed = true
		}
	}

	return changed
}

// publish sends the current state to the subscribers.
func (f *fold) publish() error {
	snap := Snapshot{
		Address: f.addr,
		Unspent: slices.Clone(f.unspent),
		Synced:  f.synced,
		Seq:     f.seq,
	}
	f.seq++

	log.Tracef("Publishing %v", snap)

	return f.hub.Publish(snap)
}
