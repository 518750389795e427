// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package actions

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/data"
	"github.com/nadam/radixwallet/pkg/radunit"
)

// TokenTransfer is a transfer read back from the ledger.
type TokenTransfer struct {
	From       address.Address
	To         address.Address
	Amount     radunit.Amount
	Attachment fn.Option[data.Data]
	Timestamp  time.Time
}

// String returns "<timestamp> <from> -> <to> <amount>[ <attachment>]".
func (t TokenTransfer) String() string {
	s := fmt.Sprintf("%d %v -> %v %v", t.Timestamp.UnixMilli(), t.From,
		t.To, t.Amount)
	t.Attachment.WhenSome(func(d data.Data) {
		s += " " + d.String()
	})

	return s
}
