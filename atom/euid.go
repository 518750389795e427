// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package atom contains the ledger record types, the record builder and the
// proof-of-work fee search.
package atom

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// EUIDSize is the size of an EUID in bytes.
	EUIDSize = 16

	// HashSize is the size of a Hash in bytes.
	HashSize = chainhash.HashSize
)

// EUID is a 128 bit identifier. It is used for particles, atoms, assets and
// addresses and is always derived from a hash of the identified thing.
type EUID [EUIDSize]byte

// Hash is a double-SHA256 digest.
type Hash [HashSize]byte

// EUIDOf derives an EUID from arbitrary bytes: the first 16 bytes of their
// double-SHA256.
func EUIDOf(b []byte) EUID {
	return HashOf(b).EUID()
}

// KeyEUID returns the identifier of a public key, which is also the
// identifier of every address built on that key.
func KeyEUID(pub *btcec.PublicKey) EUID {
	return EUIDOf(pub.SerializeCompressed())
}

// HashOf returns the double-SHA256 of b.
func HashOf(b []byte) Hash {
	return Hash(chainhash.DoubleHashH(b))
}

// IsZero returns true if no byte of the identifier is set.
func (e EUID) IsZero() bool {
	return e == EUID{}
}

// Compare orders identifiers bytewise.
func (e EUID) Compare(o EUID) int {
	return bytes.Compare(e[:], o[:])
}

// String returns the hex encoding of the identifier.
func (e EUID) String() string {
	return hex.EncodeToString(e[:])
}

// EUID truncates the hash to an identifier.
func (h Hash) EUID() EUID {
	var e EUID
	copy(e[:], h[:EUIDSize])

	return e
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
