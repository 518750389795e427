// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atom

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder shared by every hash computation in this
// package. Core Deterministic Encoding makes the encoding, and therefore the
// hash, a pure function of the encoded value. See
// <https://www.rfc-editor.org/rfc/rfc8949.html#name-deterministically-encoded-c>.
var encMode cbor.EncMode

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Errorf("initializing CBOR encoder mode: %w", err))
	}
}

// Marshal encodes v with the deterministic encoder of this package.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// hashCBOR encodes the value and returns the double-SHA256 of the encoding.
// Encoding before hashing prevents two values with differently split fields
// from producing the same hash input.
func hashCBOR(v any) (Hash, error) {
	b, err := Marshal(v)
	if err != nil {
		return Hash{}, fmt.Errorf("encoding %T: %w", v, err)
	}

	return HashOf(b), nil
}
