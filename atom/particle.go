// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atom

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
)

// FeeAssetISO is the code of the pseudo asset used by proof-of-work fee
// particles.
const FeeAssetISO = "POW"

// FeeAsset is the asset identifier of proof-of-work fee particles.
var FeeAsset = EUIDOf([]byte(FeeAssetISO))

// ParticleKind tells transfer particles apart from fee particles.
type ParticleKind uint8

const (
	// KindTransfer is a particle moving an amount of an asset.
	KindTransfer ParticleKind = iota

	// KindFee is the proof-of-work fee particle. Its quantity is the
	// nonce found by the work search.
	KindFee
)

// String returns the string representation of a particle kind.
func (k ParticleKind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"

	case KindFee:
		return "fee"

	default:
		return "unknown particle kind"
	}
}

// Particle is an amount of one asset controlled by a set of owner keys. A
// positive quantity creates an output that can later be spent. A negative
// quantity is an input that consumes the output referenced by Spends.
//
// Particles are values: once added to a builder they are copied and never
// mutated again.
type Particle struct {
	_ struct{} `cbor:",toarray"`

	// Kind is the particle kind.
	Kind ParticleKind

	// Asset is the identifier of the asset the quantity is denominated
	// in.
	Asset EUID

	// Quantity is the signed amount in sub-units.
	Quantity int64

	// Owners are the compressed public keys controlling the particle.
	Owners [][]byte

	// Nonce makes otherwise identical particles distinct.
	Nonce uint64

	// Spends is the ID of the output consumed by this particle. It is
	// zero for outputs.
	Spends EUID
}

// NewOutput creates an output particle of the given asset and quantity owned
// by the given key.
func NewOutput(asset EUID, quantity int64, owner *btcec.PublicKey,
	nonce uint64) Particle {

	return Particle{
		Kind:     KindTransfer,
		Asset:    asset,
		Quantity: quantity,
		Owners:   [][]byte{owner.SerializeCompressed()},
		Nonce:    nonce,
	}
}

// Hash returns the content hash of the particle.
func (p Particle) Hash() Hash {
	h, err := hashCBOR(p)
	if err != nil {
		// Particles only hold fixed size fields, byte slices and
		// integers, so encoding cannot fail.
		panic(err)
	}

	return h
}

// ID returns the unique identifier of the particle.
func (p Particle) ID() EUID {
	return p.Hash().EUID()
}

// IsInput returns true if the particle consumes a previous output.
func (p Particle) IsInput() bool {
	return p.Quantity < 0
}

// IsOutput returns true if the particle creates a new output.
func (p Particle) IsOutput() bool {
	return p.Quantity > 0
}

// IsFee returns true for proof-of-work fee particles.
func (p Particle) IsFee() bool {
	return p.Kind == KindFee
}

// Amount returns the absolute quantity of the particle.
func (p Particle) Amount() int64 {
	if p.Quantity < 0 {
		return -p.Quantity
	}

	return p.Quantity
}

// OwnedBy returns true if the key with the given identifier is one of the
// owners.
func (p Particle) OwnedBy(id EUID) bool {
	for _, owner := range p.Owners {
		if EUIDOf(owner) == id {
			return true
		}
	}

	return false
}

// Spend returns the input particle consuming p. It must only be called on
// outputs.
func (p Particle) Spend() Particle {
	return Particle{
		Kind:     p.Kind,
		Asset:    p.Asset,
		Quantity: -p.Quantity,
		Owners:   p.copyOwners(),
		Nonce:    p.Nonce,
		Spends:   p.ID(),
	}
}

// Copy returns a deep copy of the particle.
func (p Particle) Copy() Particle {
	c := p
	c.Owners = p.copyOwners()

	return c
}

// Equal returns true if both particles have the same content.
func (p Particle) Equal(o Particle) bool {
	return p.Kind == o.Kind && p.Asset == o.Asset &&
		p.Quantity == o.Quantity && p.Nonce == o.Nonce &&
		p.Spends == o.Spends &&
		slices.EqualFunc(p.Owners, o.Owners, bytes.Equal)
}

// String returns a short description of the particle for logging.
func (p Particle) String() string {
	return fmt.Sprintf("%s(id=%v, asset=%v, qty=%d)", p.Kind, p.ID(),
		p.Asset, p.Quantity)
}

// validate checks the invariants of a particle that is about to be added to
// a record.
func (p Particle) validate() error {
	switch {
	case p.Quantity == 0:
		return fmt.Errorf("%w: zero quantity", ErrInvalidParticle)

	case len(p.Owners) == 0:
		return fmt.Errorf("%w: no owners", ErrInvalidParticle)

	case p.IsInput() && p.Spends.IsZero():
		return fmt.Errorf("%w: input does not reference an output",
			ErrInvalidParticle)

	case p.IsOutput() && !p.Spends.IsZero():
		return fmt.Errorf("%w: output references an output",
			ErrInvalidParticle)
	}

	return nil
}

// copyOwners deep copies the owner keys. A nil list stays nil since nil and
// empty lists encode differently.
func (p Particle) copyOwners() [][]byte {
	if p.Owners == nil {
		return nil
	}

	owners := make([][]byte, len(p.Owners))
	for i, owner := range p.Owners {
		owners[i] = bytes.Clone(owner)
	}

	return owners
}
