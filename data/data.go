// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package data implements the payload envelope stored in atoms and its
// optional encryption for a set of readers.
package data

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nadam/radixwallet/atom"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// contentKeySize is the size of the symmetric key sealing the bytes.
	contentKeySize = chacha20poly1305.KeySize

	// protectorSize is the size of ephemeral key, nonce and sealed
	// content key.
	protectorSize = btcec.PubKeyBytesLenCompressed +
		chacha20poly1305.NonceSize + contentKeySize +
		chacha20poly1305.Overhead
)

var (
	// ErrNoProtector is returned when none of the protectors of encrypted
	// data can be opened with the given key.
	ErrNoProtector = errors.New("no protector for key")

	// ErrNotData is returned when a payload is not an encoded envelope.
	ErrNotData = errors.New("payload is not a data envelope")
)

// Metadata describes the content of a data envelope.
type Metadata struct {
	_ struct{} `cbor:",toarray"`

	// ContentType is the media type of the plaintext.
	ContentType string

	// Application is the application that wrote the data.
	Application string
}

// Encryptor holds one sealed copy of the content key per reader.
type Encryptor struct {
	_ struct{} `cbor:",toarray"`

	// Protectors are ephemeral key || nonce || sealed content key.
	Protectors [][]byte
}

// Data is the envelope carried in the payload of an atom. When Encryptor is
// set, Bytes holds nonce || ciphertext.
type Data struct {
	_ struct{} `cbor:",toarray"`

	Bytes     []byte
	Metadata  Metadata
	Encryptor *Encryptor
}

// Unencrypted is the plaintext view of a data envelope.
type Unencrypted struct {
	Bytes    []byte
	Metadata Metadata
}

// String returns the plaintext as a string.
func (u *Unencrypted) String() string {
	return string(u.Bytes)
}

// Option customizes the envelope built by NewData.
type Option func(*options)

type options struct {
	metadata Metadata
	readers  []*btcec.PublicKey
}

// WithContentType sets the media type of the plaintext.
func WithContentType(contentType string) Option {
	return func(o *options) {
		o.metadata.ContentType = contentType
	}
}

// WithApplication tags the envelope with the writing application.
func WithApplication(app string) Option {
	return func(o *options) {
		o.metadata.Application = app
	}
}

// WithEncryptionFor encrypts the bytes so that only the given keys can read
// them.
func WithEncryptionFor(readers ...*btcec.PublicKey) Option {
	return func(o *options) {
		o.readers = append(o.readers, readers...)
	}
}

// NewData creates an envelope around b.
func NewData(b []byte, opts ...Option) (*Data, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Data{Metadata: o.metadata}
	if len(o.readers) == 0 {
		d.Bytes = bytes.Clone(b)
		return d, nil
	}

	contentKey := make([]byte, contentKeySize)
	if _, err := rand.Read(contentKey); err != nil {
		return nil, fmt.Errorf("content key: %w", err)
	}

	sealed, err := seal(contentKey, b)
	if err != nil {
		return nil, err
	}

	d.Bytes = sealed
	d.Encryptor = &Encryptor{}
	for _, reader := range o.readers {
		protector, err := protect(contentKey, reader)
		if err != nil {
			return nil, err
		}

		d.Encryptor.Protectors = append(
			d.Encryptor.Protectors, protector,
		)
	}

	return d, nil
}

// IsEncrypted returns true if the bytes are sealed.
func (d *Data) IsEncrypted() bool {
	return d.Encryptor != nil
}

// Encode returns the payload bytes of the envelope.
func (d *Data) Encode() ([]byte, error) {
	return atom.Marshal(d)
}

// DecodeData parses payload bytes produced by Encode.
func DecodeData(b []byte) (*Data, error) {
	var d Data
	if err := atom.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotData, err)
	}

	return &d, nil
}

// Open returns the plaintext of the envelope. Unencrypted envelopes are
// returned as is; encrypted ones need the private key of one of the readers.
func (d *Data) Open(key *btcec.PrivateKey) (*Unencrypted, error) {
	if !d.IsEncrypted() {
		return &Unencrypted{
			Bytes:    bytes.Clone(d.Bytes),
			Metadata: d.Metadata,
		}, nil
	}

	for _, protector := range d.Encryptor.Protectors {
		contentKey, err := unprotect(protector, key)
		if err != nil {
			continue
		}

		plain, err := open(contentKey, d.Bytes)
		if err != nil {
			return nil, err
		}

		return &Unencrypted{Bytes: plain, Metadata: d.Metadata}, nil
	}

	return nil, ErrNoProtector
}

// protect seals the content key for reader with a key agreed between a fresh
// ephemeral key and the reader key.
func protect(contentKey []byte, reader *btcec.PublicKey) ([]byte, error) {
	ephemeral, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("ephemeral key: %w", err)
	}

	sealed, err := seal(sharedKey(ephemeral, reader), contentKey)
	if err != nil {
		return nil, err
	}

	protector := make([]byte, 0, protectorSize)
	protector = append(protector, ephemeral.PubKey().SerializeCompressed()...)

	return append(protector, sealed...), nil
}

func unprotect(protector []byte, key *btcec.PrivateKey) ([]byte, error) {
	if len(protector) != protectorSize {
		return nil, fmt.Errorf("protector size %d", len(protector))
	}

	ephemeral, err := btcec.ParsePubKey(
		protector[:btcec.PubKeyBytesLenCompressed],
	)
	if err != nil {
		return nil, err
	}

	return open(
		sharedKey(key, ephemeral),
		protector[btcec.PubKeyBytesLenCompressed:],
	)
}

func sharedKey(priv *btcec.PrivateKey, pub *btcec.PublicKey) []byte {
	secret := sha256.Sum256(btcec.GenerateSharedSecret(priv, pub))

	return secret[:]
}

// seal encrypts plain and returns nonce || ciphertext.
func seal(key, plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+
		len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plain, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed data too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()],
		sealed[aead.NonceSize():]

	return aead.Open(nil, nonce, ciphertext, nil)
}

// String returns a short description of the envelope for logging.
func (d *Data) String() string {
	if d.IsEncrypted() {
		return fmt.Sprintf("data(%dB, encrypted for %d)", len(d.Bytes),
			len(d.Encryptor.Protectors))
	}

	return fmt.Sprintf("data(%dB)", len(d.Bytes))
}
