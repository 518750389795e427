// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package memledger implements an in-memory ledger node. It validates and
// stores submitted atoms and streams them to per-address subscribers.
package memledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/internal/broadcast"
	"github.com/nadam/radixwallet/ledger"
)

var (
	// ErrUnknownInput is returned when an atom spends an output the node
	// never stored.
	ErrUnknownInput = errors.New("unknown input")

	// ErrUnbalanced is returned when the inputs and outputs of an asset
	// do not sum to zero.
	ErrUnbalanced = errors.New("unbalanced atom")

	// ErrDoubleSpend is returned when an input was already spent by a
	// stored atom.
	ErrDoubleSpend = errors.New("input already spent")
)

// Option customizes a Ledger.
type Option func(*Ledger)

// WithDifficulty sets the proof-of-work difficulty required on submit. Zero
// disables the check.
func WithDifficulty(bits uint8) Option {
	return func(l *Ledger) {
		l.difficulty = bits
	}
}

// WithRedelivery delivers every atom twice on address streams.
func WithRedelivery() Option {
	return func(l *Ledger) {
		l.redeliver = true
	}
}

// Ledger is an in-memory ledger node.
type Ledger struct {
	magic      uint32
	difficulty uint8
	redeliver  bool

	mu sync.Mutex

	atoms   []*atom.Atom
	stored  map[atom.EUID]struct{}
	outputs map[atom.EUID]atom.Particle
	spentBy map[atom.EUID]atom.EUID
	queries map[atom.EUID]int

	// live delivers atoms stored after a stream has sent its history.
	live *broadcast.Hub[*atom.Atom]
}

// A compile time check to ensure Ledger satisfies ledger.Ledger.
var _ ledger.Ledger = (*Ledger)(nil)

// New creates and starts a ledger node for the given network magic.
func New(magic uint32, opts ...Option) *Ledger {
	l := &Ledger{
		magic:      magic,
		difficulty: atom.DefaultDifficulty,
		stored:     make(map[atom.EUID]struct{}),
		outputs:    make(map[atom.EUID]atom.Particle),
		spentBy:    make(map[atom.EUID]atom.EUID),
		queries:    make(map[atom.EUID]int),
		live:       broadcast.NewHub[*atom.Atom](broadcast.ReplayNone),
	}
	for _, opt := range opts {
		opt(l)
	}

	// Start never fails on a fresh hub.
	_ = l.live.Start()

	return l
}

// Stop ends every open address stream.
func (l *Ledger) Stop() {
	_ = l.live.Stop()
}

// Magic returns the network magic.
func (l *Ledger) Magic() uint32 {
	return l.magic
}

// AddressFromPublicKey returns the address of pub on this network.
func (l *Ledger) AddressFromPublicKey(pub *btcec.PublicKey) address.Address {
	return address.FromPublicKey(l.magic, pub)
}

// Queries returns how many streams were opened for addr.
func (l *Ledger) Queries(addr address.Address) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.queries[addr.EUID()]
}

// Atoms returns the stored atoms in the order they were stored.
func (l *Ledger) Atoms() []*atom.Atom {
	l.mu.Lock()
	defer l.mu.Unlock()

	atoms := make([]*atom.Atom, len(l.atoms))
	for i, a := range l.atoms {
		atoms[i] = a.Copy()
	}

	return atoms
}

// Inject stores the atom without validation. It is used to fund addresses.
func (l *Ledger) Inject(a *atom.Atom) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.stored[a.ID()]; ok {
		return nil
	}

	return l.store(a.Copy())
}

// AtomsForAddress streams the atoms delivered to addr.
func (l *Ledger) AtomsForAddress(ctx context.Context, addr address.Address,
	kind atom.Kind) (<-chan ledger.Observation, error) {

	id := addr.EUID()
	matches := func(a *atom.Atom) bool {
		return kind.Matches(a.Kind) && a.HasDestination(id)
	}

	// Taking the history and subscribing under the same lock ensures no
	// atom is missed or sent twice in between.
	l.mu.Lock()
	var history []*atom.Atom
	for _, a := range l.atoms {
		if matches(a) {
			history = append(history, a)
		}
	}
	client, err := l.live.Subscribe()
	if err == nil {
		l.queries[id]++
	}
	l.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("subscribe %v: %w", addr, err)
	}

	log.Debugf("Streaming %d stored atoms to %v", len(history), addr)

	out := make(chan ledger.Observation)
	go func() {
		defer close(out)
		defer client.Cancel()

		send := func(o ledger.Observation) bool {
			select {
			case out <- o:
				return true
			case <-ctx.Done():
				return false
			}
		}

		deliver := func(a *atom.Atom) bool {
			copies := 1
			if l.redeliver {
				copies = 2
			}
			for i := 0; i < copies; i++ {
				if !send(ledger.Observation{Atom: a.Copy()}) {
					return false
				}
			}

			return true
		}

		for _, a := range history {
			if !deliver(a) {
				return
			}
		}
		if !send(ledger.Observation{Head: true}) {
			return
		}

		for {
			select {
			case a, ok := <-client.Updates():
				if !ok {
					return
				}
				if matches(a) && !deliver(a) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// SubmitAtom validates and stores the atom.
func (l *Ledger) SubmitAtom(ctx context.Context,
	signed *atom.Signed) (<-chan ledger.SubmissionUpdate, error) {

	out := make(chan ledger.SubmissionUpdate, 3)
	go func() {
		defer close(out)

		send := func(state ledger.SubmissionState, msg string) bool {
			select {
			case out <- ledger.SubmissionUpdate{
				State:   state,
				Message: msg,
				Hash:    signed.Hash(),
			}:
				return true

			case <-ctx.Done():
				return false
			}
		}

		if !send(ledger.Submitting, "") {
			return
		}
		if !send(ledger.Submitted, "") {
			return
		}

		err := l.accept(signed)
		switch {
		case err == nil:
			send(ledger.Stored, "")

		case errors.Is(err, ErrDoubleSpend):
			send(ledger.Collision, err.Error())

		default:
			send(ledger.ValidationError, err.Error())
		}
	}()

	return out, nil
}

// accept validates the atom and stores it. A stored atom submitted again is
// accepted without change.
func (l *Ledger) accept(signed *atom.Signed) error {
	a := signed.Atom()
	id := a.ID()

	if l.difficulty > 0 {
		err := atom.VerifyWork(a, l.magic, l.difficulty)
		if err != nil {
			return err
		}
	}

	if fee, ok := a.Fee(); ok {
		if err := verifyOwners(signed, fee); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.stored[id]; ok {
		return nil
	}

	balance := make(map[atom.EUID]int64)
	spends := make(map[atom.EUID]struct{})
	for _, p := range a.Particles {
		if p.IsFee() {
			continue
		}
		balance[p.Asset] += p.Quantity

		if !p.IsInput() {
			continue
		}

		output, ok := l.outputs[p.Spends]
		if !ok {
			return fmt.Errorf("%w: %v", ErrUnknownInput, p.Spends)
		}
		if output.Asset != p.Asset || output.Quantity != p.Amount() {
			return fmt.Errorf("input %v does not match output %v",
				p.ID(), p.Spends)
		}
		if err := verifyOwners(signed, output); err != nil {
			return err
		}
		if _, ok := spends[p.Spends]; ok {
			return fmt.Errorf("%w: %v twice in atom %v",
				ErrDoubleSpend, p.Spends, id)
		}
		spends[p.Spends] = struct{}{}

		if spender, ok := l.spentBy[p.Spends]; ok {
			return fmt.Errorf("%w: %v by atom %v", ErrDoubleSpend,
				p.Spends, spender)
		}
	}

	for asset, sum := range balance {
		if sum != 0 {
			return fmt.Errorf("%w: asset %v off by %d",
				ErrUnbalanced, asset, sum)
		}
	}

	return l.store(a)
}

// store appends the atom and publishes it to the open streams.
//
// NOTE: The mutex MUST be held.
func (l *Ledger) store(a *atom.Atom) error {
	id := a.ID()
	l.stored[id] = struct{}{}
	l.atoms = append(l.atoms, a)

	for _, p := range a.Particles {
		switch {
		case p.IsInput():
			l.spentBy[p.Spends] = id

		case p.IsOutput() && !p.IsFee():
			l.outputs[p.ID()] = p
		}
	}

	log.Debugf("Stored atom %v", a)

	return l.live.Publish(a)
}

// verifyOwners checks that every owner of p signed the atom.
func verifyOwners(signed *atom.Signed, p atom.Particle) error {
	for _, owner := range p.Owners {
		pub, err := btcec.ParsePubKey(owner)
		if err != nil {
			return fmt.Errorf("owner key: %w", err)
		}

		if err := signed.Verify(pub); err != nil {
			return err
		}
	}

	return nil
}
