// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atom

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/ticker"
)

const (
	// DefaultDifficulty is the number of leading zero bits the
	// proof-of-work digest must have.
	DefaultDifficulty = 16

	// workCheckInterval is the number of nonces tried between two checks
	// of the context and the progress ticker.
	workCheckInterval = 1 << 10

	// workLogInterval is how often the search reports its progress.
	workLogInterval = 5 * time.Second

	// workInputSize is the size of magic || seed || nonce.
	workInputSize = 4 + HashSize + 8
)

var (
	// ErrMissingFee is returned when an atom without a fee particle is
	// checked for proof of work.
	ErrMissingFee = errors.New("missing proof-of-work fee")

	// ErrInsufficientWork is returned when the fee nonce does not satisfy
	// the difficulty.
	ErrInsufficientWork = errors.New("insufficient proof of work")
)

// Work is the result of a proof-of-work search.
type Work struct {
	// Nonce is the counter value satisfying the difficulty.
	Nonce uint64

	// Digest is the double-SHA256 of magic, seed and nonce.
	Digest Hash
}

// FindNonce searches the nonce space, starting at one, until the
// double-SHA256 of magic (big endian uint32), seed and nonce (big endian
// uint64) has at least difficulty leading zero bits.
func FindNonce(ctx context.Context, magic uint32, seed Hash,
	difficulty uint8) (*Work, error) {

	var input [workInputSize]byte
	binary.BigEndian.PutUint32(input[:4], magic)
	copy(input[4:4+HashSize], seed[:])

	progress := ticker.New(workLogInterval)
	progress.Resume()
	defer progress.Stop()

	start := time.Now()
	for nonce := uint64(1); ; nonce++ {
		if nonce%workCheckInterval == 0 {
			select {
			case <-ctx.Done():
				log.Debugf("Proof of work for seed %v canceled "+
					"after %d nonces", seed, nonce)

				return nil, ctx.Err()

			case <-progress.Ticks():
				log.Debugf("Proof of work for seed %v: %d "+
					"nonces in %v", seed, nonce,
					time.Since(start).Round(time.Millisecond))

			default:
			}
		}

		binary.BigEndian.PutUint64(input[4+HashSize:], nonce)
		digest := chainhash.DoubleHashH(input[:])
		if leadingZeroBits(digest[:]) >= int(difficulty) {
			return &Work{Nonce: nonce, Digest: Hash(digest)}, nil
		}
	}
}

// CheckWork reports whether the nonce satisfies the difficulty for the given
// magic and seed.
func CheckWork(magic uint32, seed Hash, nonce uint64, difficulty uint8) bool {
	var input [workInputSize]byte
	binary.BigEndian.PutUint32(input[:4], magic)
	copy(input[4:4+HashSize], seed[:])
	binary.BigEndian.PutUint64(input[4+HashSize:], nonce)

	digest := chainhash.DoubleHashH(input[:])

	return leadingZeroBits(digest[:]) >= int(difficulty)
}

// VerifyWork checks the fee particle of the atom. The seed is the hash of the
// atom without its fee particle, exactly as it was hashed by BuildWithFee.
func VerifyWork(a *Atom, magic uint32, difficulty uint8) error {
	fee, ok := a.Fee()
	if !ok {
		return ErrMissingFee
	}

	unpaid := a.Copy()
	unpaid.Particles = nil
	for _, p := range a.Particles {
		if !p.IsFee() {
			unpaid.Particles = append(unpaid.Particles, p.Copy())
		}
	}

	if !CheckWork(magic, unpaid.Hash(), uint64(fee.Quantity), difficulty) {
		return fmt.Errorf("%w: nonce %d below difficulty %d",
			ErrInsufficientWork, fee.Quantity, difficulty)
	}

	return nil
}

// leadingZeroBits counts the leading zero bits of b.
func leadingZeroBits(b []byte) int {
	n := 0
	for _, c := range b {
		if c != 0 {
			return n + bits.LeadingZeros8(c)
		}

		n += 8
	}

	return n
}
