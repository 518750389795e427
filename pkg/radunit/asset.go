// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package radunit provides the asset and amount types used to express token
// quantities in a human readable way.
package radunit

import (
	"fmt"

	"github.com/nadam/radixwallet/atom"
)

var (
	// AssetTEST is the test token of the development universe. One TEST
	// is divisible into 100000 sub-units.
	AssetTEST = NewAsset("TEST", 100000)

	// AssetPOW is the pseudo asset carried by proof-of-work fee
	// particles. It has no fractional part.
	AssetPOW = NewAsset(atom.FeeAssetISO, 1)
)

// Asset describes a token class: its ISO style code and how many sub-units
// make up one whole token.
type Asset struct {
	// ISO is the short code of the token, e.g. "TEST".
	ISO string

	// SubUnits is the number of indivisible units in one token. It must
	// be positive.
	SubUnits int64
}

// NewAsset creates a new asset. A non-positive sub-unit count is clamped to
// one so that amounts can always be rendered.
func NewAsset(iso string, subUnits int64) Asset {
	if subUnits <= 0 {
		subUnits = 1
	}

	return Asset{ISO: iso, SubUnits: subUnits}
}

// ID returns the ledger identifier of the asset. It is derived from the ISO
// code so that every client computes the same value.
func (a Asset) ID() atom.EUID {
	return atom.EUIDOf([]byte(a.ISO))
}

// String returns the ISO code of the asset.
func (a Asset) String() string {
	return a.ISO
}

// GoString implements fmt.GoStringer.
func (a Asset) GoString() string {
	return fmt.Sprintf("radunit.Asset{ISO: %q, SubUnits: %d}", a.ISO,
		a.SubUnits)
}
