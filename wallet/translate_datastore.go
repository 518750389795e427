// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/nadam/radixwallet/actions"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/data"
)

// DefaultApplicationID tags payload atoms whose data names no application.
const DefaultApplicationID = "radix-data"

// ErrNoPayload is returned when a payload atom carries no data.
var ErrNoPayload = errors.New("atom has no payload")

// DataStoreTranslator turns data store actions into payload atoms. No
// particles are selected.
type DataStoreTranslator struct {
	clock clock.Clock
}

// NewDataStoreTranslator creates a data store translator stamping atoms with
// the time of c.
func NewDataStoreTranslator(c clock.Clock) *DataStoreTranslator {
	return &DataStoreTranslator{clock: c}
}

// A compile time check to ensure DataStoreTranslator satisfies Translator.
var _ Translator = (*DataStoreTranslator)(nil)

// Translate sets the encoded data as payload and the addresses as
// destinations.
func (t *DataStoreTranslator) Translate(_ context.Context,
	action actions.Action, b *atom.Builder) error {

	store, ok := action.(*actions.DataStoreAction)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	d := store.Data()
	if err := setPayload(b, d); err != nil {
		return err
	}

	app := d.Metadata.Application
	if app == "" {
		app = DefaultApplicationID
	}

	b.Kind(atom.KindPayload).
		ApplicationID(app).
		Timestamp(t.clock.Now().UnixMilli())
	for _, addr := range store.Addresses() {
		b.AddDestination(addr.EUID())
	}

	return nil
}

// FromAtom decodes the data stored in a payload atom.
func (t *DataStoreTranslator) FromAtom(a *atom.Atom) (*data.Data, error) {
	if len(a.Payload) == 0 {
		return nil, ErrNoPayload
	}

	return data.DecodeData(a.Payload)
}
