// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atom

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

var (
	// ErrMissingSignature is returned when a signed atom carries no
	// signature of the key being verified.
	ErrMissingSignature = errors.New("missing signature")

	// ErrBadSignature is returned when a signature does not verify
	// against the atom hash.
	ErrBadSignature = errors.New("bad signature")
)

// Kind is the kind of an atom. Ledger queries may be filtered by kind.
type Kind uint8

const (
	// KindAny matches every atom kind in ledger queries. It is never
	// the kind of a built atom.
	KindAny Kind = iota

	// KindTransaction is an atom moving assets. It may carry an
	// attachment payload.
	KindTransaction

	// KindPayload is an application payload atom without particles.
	KindPayload
)

// String returns the string representation of an atom kind.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"

	case KindTransaction:
		return "transaction"

	case KindPayload:
		return "payload"

	default:
		return "unknown atom kind"
	}
}

// Matches returns true if an atom of kind o satisfies the filter k.
func (k Kind) Matches(o Kind) bool {
	return k == KindAny || k == o
}

// Atom is the unit submitted to the ledger: an ordered list of particles, an
// optional opaque payload and metadata. The hash of an atom is a pure
// function of all its fields.
type Atom struct {
	_ struct{} `cbor:",toarray"`

	// Kind is the atom kind.
	Kind Kind

	// ApplicationID tags payload atoms with the application that wrote
	// them.
	ApplicationID string

	// Destinations are the address identifiers the atom is delivered to.
	Destinations []EUID

	// Particles are the inputs, outputs and fee of the atom.
	Particles []Particle

	// Payload is the opaque application payload.
	Payload []byte

	// Timestamp is the creation time in unix milliseconds.
	Timestamp int64
}

// Hash returns the hash of the atom.
func (a *Atom) Hash() Hash {
	h, err := hashCBOR(a)
	if err != nil {
		// All fields have a fixed CBOR representation.
		panic(err)
	}

	return h
}

// ID returns the identifier of the atom.
func (a *Atom) ID() EUID {
	return a.Hash().EUID()
}

// Time returns the timestamp as a time value.
func (a *Atom) Time() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// Inputs returns the particles consumed by the atom.
func (a *Atom) Inputs() []Particle {
	var inputs []Particle
	for _, p := range a.Particles {
		if p.IsInput() {
			inputs = append(inputs, p)
		}
	}

	return inputs
}

// Outputs returns the particles created by the atom, fee included.
func (a *Atom) Outputs() []Particle {
	var outputs []Particle
	for _, p := range a.Particles {
		if p.IsOutput() {
			outputs = append(outputs, p)
		}
	}

	return outputs
}

// Fee returns the proof-of-work fee particle, if any.
func (a *Atom) Fee() (Particle, bool) {
	for _, p := range a.Particles {
		if p.IsFee() {
			return p, true
		}
	}

	return Particle{}, false
}

// HasDestination returns true if the atom is delivered to the given
// address identifier.
func (a *Atom) HasDestination(id EUID) bool {
	return slices.Contains(a.Destinations, id)
}

// Copy returns a deep copy of the atom.
func (a *Atom) Copy() *Atom {
	c := &Atom{
		Kind:          a.Kind,
		ApplicationID: a.ApplicationID,
		Destinations:  slices.Clone(a.Destinations),
		Payload:       bytes.Clone(a.Payload),
		Timestamp:     a.Timestamp,
	}
	if a.Particles != nil {
		c.Particles = make([]Particle, len(a.Particles))
		for i, p := range a.Particles {
			c.Particles[i] = p.Copy()
		}
	}

	return c
}

// Equal returns true if both atoms have the same content.
func (a *Atom) Equal(o *Atom) bool {
	if a == nil || o == nil {
		return a == o
	}

	return a.Hash() == o.Hash()
}

// String returns a short description of the atom for logging.
func (a *Atom) String() string {
	return fmt.Sprintf("%s(id=%v, particles=%d, payload=%dB)", a.Kind,
		a.ID(), len(a.Particles), len(a.Payload))
}

// Unsigned is a built atom whose hash is fixed. It is the input of the
// signing identity.
type Unsigned struct {
	atom *Atom
	hash Hash
}

// NewUnsigned wraps a copy of the atom.
func NewUnsigned(a *Atom) *Unsigned {
	c := a.Copy()

	return &Unsigned{atom: c, hash: c.Hash()}
}

// Atom returns a copy of the wrapped atom.
func (u *Unsigned) Atom() *Atom {
	return u.atom.Copy()
}

// Hash returns the hash the signatures are bound to.
func (u *Unsigned) Hash() Hash {
	return u.hash
}

// ID returns the identifier of the atom.
func (u *Unsigned) ID() EUID {
	return u.hash.EUID()
}

// Signed is an atom together with the signatures of its owners. Signatures
// are DER encoded ECDSA signatures over the atom hash keyed by the signer's
// key identifier.
type Signed struct {
	unsigned   *Unsigned
	signatures map[EUID][]byte
}

// NewSigned binds signatures to an unsigned atom.
func NewSigned(u *Unsigned, signatures map[EUID][]byte) *Signed {
	sigs := make(map[EUID][]byte, len(signatures))
	for id, sig := range signatures {
		sigs[id] = bytes.Clone(sig)
	}

	return &Signed{unsigned: u, signatures: sigs}
}

// Sign signs the unsigned atom with every given key.
func Sign(u *Unsigned, keys ...*btcec.PrivateKey) *Signed {
	sigs := make(map[EUID][]byte, len(keys))
	for _, key := range keys {
		hash := u.Hash()
		sig := ecdsa.Sign(key, hash[:])
		sigs[KeyEUID(key.PubKey())] = sig.Serialize()
	}

	return &Signed{unsigned: u, signatures: sigs}
}

// Atom returns a copy of the signed atom.
func (s *Signed) Atom() *Atom {
	return s.unsigned.Atom()
}

// Hash returns the hash of the signed atom.
func (s *Signed) Hash() Hash {
	return s.unsigned.Hash()
}

// ID returns the identifier of the signed atom.
func (s *Signed) ID() EUID {
	return s.unsigned.ID()
}

// Signature returns the signature created by the key with the given
// identifier.
func (s *Signed) Signature(id EUID) ([]byte, bool) {
	sig, ok := s.signatures[id]

	return sig, ok
}

// Verify checks the signature of the given key.
func (s *Signed) Verify(pub *btcec.PublicKey) error {
	raw, ok := s.signatures[KeyEUID(pub)]
	if !ok {
		return fmt.Errorf("%w: key %v", ErrMissingSignature,
			KeyEUID(pub))
	}

	sig, err := ecdsa.ParseDERSignature(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	hash := s.Hash()
	if !sig.Verify(hash[:], pub) {
		return fmt.Errorf("%w: key %v", ErrBadSignature, KeyEUID(pub))
	}

	return nil
}
