// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package radunit

import (
	"github.com/shopspring/decimal"
)

// Amount is a quantity of a given asset expressed in sub-units.
type Amount struct {
	// SubUnits is the raw quantity.
	SubUnits int64

	// Asset is the token class the quantity is denominated in.
	Asset Asset
}

// SubUnitsOf creates an amount of n sub-units of the given asset.
func SubUnitsOf(n int64, asset Asset) Amount {
	return Amount{SubUnits: n, Asset: asset}
}

// Zero returns the zero amount of the given asset.
func Zero(asset Asset) Amount {
	return Amount{Asset: asset}
}

// Decimal returns the amount in whole tokens.
func (a Amount) Decimal() decimal.Decimal {
	subUnits := a.Asset.SubUnits
	if subUnits <= 0 {
		subUnits = 1
	}

	return decimal.NewFromInt(a.SubUnits).Div(decimal.NewFromInt(subUnits))
}

// Add returns the sum of both amounts. The asset of the receiver is kept.
func (a Amount) Add(b Amount) Amount {
	return Amount{SubUnits: a.SubUnits + b.SubUnits, Asset: a.Asset}
}

// IsZero returns true if the amount has no sub-units.
func (a Amount) IsZero() bool {
	return a.SubUnits == 0
}

// String renders the amount in whole tokens followed by the ISO code, e.g.
// "1.5 TEST". Trailing zeros of the fractional part are dropped.
func (a Amount) String() string {
	return a.Decimal().String() + " " + a.Asset.ISO
}
