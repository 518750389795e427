// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package actions defines the high level intents the wallet turns into
// atoms.
package actions

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/data"
	"github.com/nadam/radixwallet/pkg/radunit"
)

var (
	// ErrInvalidAmount is returned for transfers of a non-positive
	// amount.
	ErrInvalidAmount = errors.New("transfer amount must be positive")

	// ErrNoDestination is returned for a data store without addresses.
	ErrNoDestination = errors.New("no destination address")
)

// Action is an intent to be translated into an atom. It is implemented by
// *TransferTokensAction and *DataStoreAction only.
type Action interface {
	fmt.Stringer

	// isAction is a marker method to ensure that only types from this
	// package can implement the interface.
	isAction()
}

// TransferOption customizes a TransferTokensAction.
type TransferOption func(*TransferTokensAction)

// WithAttachment attaches data to the transfer.
func WithAttachment(d *data.Data) TransferOption {
	return func(a *TransferTokensAction) {
		a.attachment = fn.OptionFromPtr(d)
	}
}

// WithTimestamp sets the timestamp of the transfer atom instead of the
// current time.
func WithTimestamp(ts time.Time) TransferOption {
	return func(a *TransferTokensAction) {
		a.timestamp = fn.Some(ts)
	}
}

// TransferTokensAction moves an amount of one asset between two addresses.
type TransferTokensAction struct {
	from       address.Address
	to         address.Address
	amount     radunit.Amount
	attachment fn.Option[data.Data]
	timestamp  fn.Option[time.Time]
}

// NewTransferTokens creates a transfer of amount from from to to.
func NewTransferTokens(from, to address.Address, amount radunit.Amount,
	opts ...TransferOption) (*TransferTokensAction, error) {

	if amount.SubUnits <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	a := &TransferTokensAction{
		from:   from,
		to:     to,
		amount: amount,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// From returns the sender.
func (a *TransferTokensAction) From() address.Address {
	return a.from
}

// To returns the recipient.
func (a *TransferTokensAction) To() address.Address {
	return a.to
}

// Amount returns the transferred amount.
func (a *TransferTokensAction) Amount() radunit.Amount {
	return a.amount
}

// Attachment returns the attached data, if any.
func (a *TransferTokensAction) Attachment() fn.Option[data.Data] {
	return a.attachment
}

// Timestamp returns the explicit timestamp, if any.
func (a *TransferTokensAction) Timestamp() fn.Option[time.Time] {
	return a.timestamp
}

// String renders "<timestamp|-> <from> -> <to> <amount>[ <attachment>]"
// with the timestamp in unix milliseconds.
func (a *TransferTokensAction) String() string {
	ts := fn.MapOptionZ(a.timestamp, func(ts time.Time) string {
		return strconv.FormatInt(ts.UnixMilli(), 10)
	})
	if ts == "" {
		ts = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %v -> %v %v", ts, a.from, a.to, a.amount)
	a.attachment.WhenSome(func(d data.Data) {
		fmt.Fprintf(&b, " %v", &d)
	})

	return b.String()
}

func (a *TransferTokensAction) isAction() {}

// DataStoreAction stores data in an atom delivered to a set of addresses.
type DataStoreAction struct {
	data      *data.Data
	addresses []address.Address
}

// NewDataStore creates a data store delivered to the given addresses.
func NewDataStore(d *data.Data,
	addresses ...address.Address) (*DataStoreAction, error) {

	if len(addresses) == 0 {
		return nil, ErrNoDestination
	}

	return &DataStoreAction{
		data:      d,
		addresses: slices.Clone(addresses),
	}, nil
}

// Data returns the stored data.
func (a *DataStoreAction) Data() *data.Data {
	return a.data
}

// Addresses returns the destinations of the data.
func (a *DataStoreAction) Addresses() []address.Address {
	return slices.Clone(a.addresses)
}

// String returns a short description of the action for logging.
func (a *DataStoreAction) String() string {
	return fmt.Sprintf("store %v for %v", a.data, a.addresses)
}

func (a *DataStoreAction) isAction() {}

// A compile time check to ensure both actions satisfy Action.
var (
	_ Action = (*TransferTokensAction)(nil)
	_ Action = (*DataStoreAction)(nil)
)
