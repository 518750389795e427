// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package address implements the ledger address: a network magic and an
// owner public key, with its base58 text form.
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/nadam/radixwallet/atom"
)

const (
	// checksumSize is the number of double-SHA256 bytes appended to the
	// encoded address.
	checksumSize = 4

	// encodedSize is the size of magic byte, compressed key and checksum.
	encodedSize = 1 + btcec.PubKeyBytesLenCompressed + checksumSize
)

var (
	// ErrInvalidAddress is returned when a string cannot be decoded into
	// an address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrChecksumMismatch is returned when the checksum of a decoded
	// address does not match its content.
	ErrChecksumMismatch = errors.New("address checksum mismatch")
)

// Address identifies an account on one ledger network.
type Address struct {
	// Magic is the network magic the address belongs to. Only its low
	// byte is part of the text form.
	Magic uint32

	// PublicKey is the owner key.
	PublicKey *btcec.PublicKey
}

// FromPublicKey returns the address of pub on the network with the given
// magic.
func FromPublicKey(magic uint32, pub *btcec.PublicKey) Address {
	return Address{Magic: magic, PublicKey: pub}
}

// EUID returns the identifier of the address. It only depends on the public
// key, so particles and destinations refer to owners independently of the
// network.
func (a Address) EUID() atom.EUID {
	return atom.KeyEUID(a.PublicKey)
}

// Owns returns true if the address key is one of the particle owners.
func (a Address) Owns(p atom.Particle) bool {
	return p.OwnedBy(a.EUID())
}

// IsForNet returns true if the address belongs to the network with the
// given magic.
func (a Address) IsForNet(magic uint32) bool {
	return byte(a.Magic) == byte(magic)
}

// Equal returns true if both addresses encode to the same string.
func (a Address) Equal(o Address) bool {
	if a.PublicKey == nil || o.PublicKey == nil {
		return a.PublicKey == o.PublicKey && a.IsForNet(o.Magic)
	}

	return a.IsForNet(o.Magic) && a.PublicKey.IsEqual(o.PublicKey)
}

// String returns the base58 text form of the address.
func (a Address) String() string {
	if a.PublicKey == nil {
		return "<nil>"
	}

	raw := make([]byte, 0, encodedSize)
	raw = append(raw, byte(a.Magic))
	raw = append(raw, a.PublicKey.SerializeCompressed()...)
	raw = append(raw, checksum(raw)...)

	return base58.Encode(raw)
}

// Decode parses the text form of an address. The Magic of the returned
// address only carries the low byte of the network magic.
func Decode(s string) (Address, error) {
	raw := base58.Decode(s)
	if len(raw) != encodedSize {
		return Address{}, fmt.Errorf("%w: decoded length %d, want %d",
			ErrInvalidAddress, len(raw), encodedSize)
	}

	body, sum := raw[:encodedSize-checksumSize],
		raw[encodedSize-checksumSize:]
	if !bytes.Equal(checksum(body), sum) {
		return Address{}, ErrChecksumMismatch
	}

	pub, err := btcec.ParsePubKey(body[1:])
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return Address{Magic: uint32(body[0]), PublicKey: pub}, nil
}

func checksum(b []byte) []byte {
	h := chainhash.DoubleHashB(b)

	return h[:checksumSize]
}
