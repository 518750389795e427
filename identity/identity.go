// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity defines the signing and decrypting collaborator of the
// wallet and a local key implementation of it.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/data"
)

// ErrCannotDecrypt is returned when the identity is not a reader of the
// data.
var ErrCannotDecrypt = errors.New("cannot decrypt data")

// Identity signs atoms and opens data on behalf of one key.
type Identity interface {
	// Sign signs the atom with the identity key.
	Sign(ctx context.Context, u *atom.Unsigned) (*atom.Signed, error)

	// Decrypt returns the plaintext of the data.
	Decrypt(ctx context.Context, d *data.Data) (*data.Unencrypted, error)

	// PublicKey returns the identity key.
	PublicKey() *btcec.PublicKey
}

// KeyIdentity is an Identity backed by a private key held in memory.
type KeyIdentity struct {
	key *btcec.PrivateKey
}

// A compile time check to ensure KeyIdentity satisfies Identity.
var _ Identity = (*KeyIdentity)(nil)

// NewKeyIdentity creates an identity with a fresh random key.
func NewKeyIdentity() (*KeyIdentity, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return &KeyIdentity{key: key}, nil
}

// FromPrivateKey creates an identity around an existing key.
func FromPrivateKey(key *btcec.PrivateKey) *KeyIdentity {
	return &KeyIdentity{key: key}
}

// Sign signs the atom hash.
func (k *KeyIdentity) Sign(ctx context.Context,
	u *atom.Unsigned) (*atom.Signed, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return atom.Sign(u, k.key), nil
}

// Decrypt opens the data with the identity key.
func (k *KeyIdentity) Decrypt(ctx context.Context,
	d *data.Data) (*data.Unencrypted, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plain, err := d.Open(k.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotDecrypt, err)
	}

	return plain, nil
}

// PublicKey returns the identity key.
func (k *KeyIdentity) PublicKey() *btcec.PublicKey {
	return k.key.PubKey()
}
