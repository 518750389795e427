// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/davecgh/go-spew/spew"
)

var (
	// ErrInvalidParticle is returned when a particle violates the record
	// invariants (zero quantity, duplicate identifier, missing owner or
	// an input that does not reference an output).
	ErrInvalidParticle = errors.New("invalid particle")

	// ErrPayloadAlreadySet is returned when a payload is set twice on the
	// same builder.
	ErrPayloadAlreadySet = errors.New("payload already set")
)

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithDifficulty overrides the number of leading zero bits the
// proof-of-work digest must have.
func WithDifficulty(bits uint8) BuilderOption {
	return func(b *Builder) {
		b.difficulty = bits
	}
}

// Builder accumulates the particles, payload and metadata of an atom. Every
// Build call snapshots the accumulated state, so building twice without a
// mutation in between produces atoms with the same hash, and later mutations
// never affect atoms already built.
//
// All methods are safe for concurrent use.
type Builder struct {
	mu sync.Mutex

	kind          Kind
	applicationID string
	destinations  []EUID
	particles     []Particle
	particleIDs   map[EUID]struct{}
	payload       []byte
	payloadSet    bool
	timestamp     int64

	difficulty uint8
}

// NewBuilder creates an empty builder for a transaction atom.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		kind:        KindTransaction,
		particleIDs: make(map[EUID]struct{}),
		difficulty:  DefaultDifficulty,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Kind sets the kind of the atom.
func (b *Builder) Kind(kind Kind) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.kind = kind

	return b
}

// ApplicationID sets the application tag of the atom.
func (b *Builder) ApplicationID(id string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.applicationID = id

	return b
}

// AddDestination adds an address identifier the atom is delivered to. Adding
// the same destination twice has no effect.
func (b *Builder) AddDestination(id EUID) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !slices.Contains(b.destinations, id) {
		b.destinations = append(b.destinations, id)
	}

	return b
}

// Timestamp sets the creation time of the atom in unix milliseconds.
func (b *Builder) Timestamp(ms int64) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timestamp = ms

	return b
}

// AddParticle appends a copy of the particle. Fee particles are rejected,
// they are only created by BuildWithFee.
func (b *Builder) AddParticle(p Particle) error {
	if p.IsFee() {
		return fmt.Errorf("%w: fee particles are added by the "+
			"proof-of-work search", ErrInvalidParticle)
	}

	if err := p.validate(); err != nil {
		return err
	}

	id := p.ID()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.particleIDs[id]; ok {
		return fmt.Errorf("%w: duplicate particle %v",
			ErrInvalidParticle, id)
	}

	b.particleIDs[id] = struct{}{}
	b.particles = append(b.particles, p.Copy())

	return nil
}

// SetPayload sets the opaque payload of the atom. It may only be called once.
func (b *Builder) SetPayload(payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.payloadSet {
		return ErrPayloadAlreadySet
	}

	b.payload = bytes.Clone(payload)
	b.payloadSet = true

	return nil
}

// Build snapshots the accumulated state into an unsigned atom.
func (b *Builder) Build() *Unsigned {
	a := b.snapshot()

	log.Tracef("Built atom %v: %v", a.ID(), newLogClosure(func() string {
		return spew.Sdump(a)
	}))

	return &Unsigned{atom: a, hash: a.Hash()}
}

// BuildWithFee snapshots the accumulated state, searches a proof-of-work
// nonce for it and returns the atom with the fee particle owned by owner
// appended. The builder itself is left unchanged. The search stops with the
// context error if ctx is canceled.
func (b *Builder) BuildWithFee(ctx context.Context, magic uint32,
	owner *btcec.PublicKey) (*Unsigned, error) {

	a := b.snapshot()

	b.mu.Lock()
	difficulty := b.difficulty
	b.mu.Unlock()

	work, err := FindNonce(ctx, magic, a.Hash(), difficulty)
	if err != nil {
		return nil, fmt.Errorf("proof of work: %w", err)
	}

	a.Particles = append(a.Particles, Particle{
		Kind:     KindFee,
		Asset:    FeeAsset,
		Quantity: int64(work.Nonce),
		Owners:   [][]byte{owner.SerializeCompressed()},
	})

	log.Debugf("Found proof of work for atom %v: nonce=%d, digest=%v",
		a.ID(), work.Nonce, work.Digest)

	return &Unsigned{atom: a, hash: a.Hash()}, nil
}

// snapshot copies the builder state into a new atom.
func (b *Builder) snapshot() *Atom {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := &Atom{
		Kind:          b.kind,
		ApplicationID: b.applicationID,
		Destinations:  slices.Clone(b.destinations),
		Payload:       bytes.Clone(b.payload),
		Timestamp:     b.timestamp,
	}
	if len(b.particles) > 0 {
		a.Particles = make([]Particle, len(b.particles))
		for i, p := range b.particles {
			a.Particles[i] = p.Copy()
		}
	}

	return a
}

// logClosure is used to provide a closure over expensive logging operations
// so they are only performed when the logging level requires it.
type logClosure func() string

// String invokes the underlying function and returns the result.
func (c logClosure) String() string {
	return c()
}

// newLogClosure returns a new closure over a function that returns a string
// which itself provides a Stringer interface so that it can be used with the
// logging system.
func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}
