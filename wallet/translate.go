// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/nadam/radixwallet/actions"
	"github.com/nadam/radixwallet/atom"
)

var (
	// ErrInsufficientFunds is returned when the sender does not hold
	// enough of the asset to cover a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownAction is returned when a translator is given an action
	// kind it does not handle.
	ErrUnknownAction = errors.New("unknown action")
)

// Translator populates an atom builder from an action.
type Translator interface {
	// Translate adds the particles, payload and metadata of the action
	// to the builder.
	Translate(ctx context.Context, action actions.Action,
		b *atom.Builder) error
}

// Translators dispatches every action kind to its translator.
type Translators struct {
	// Transfer handles *actions.TransferTokensAction.
	Transfer *TokenTransferTranslator

	// Store handles *actions.DataStoreAction.
	Store *DataStoreTranslator
}

// A compile time check to ensure Translators satisfies Translator.
var _ Translator = (*Translators)(nil)

// Translate dispatches the action to the translator of its kind.
func (t *Translators) Translate(ctx context.Context, action actions.Action,
	b *atom.Builder) error {

	switch a := action.(type) {
	case *actions.TransferTokensAction:
		return t.Transfer.Translate(ctx, a, b)

	case *actions.DataStoreAction:
		return t.Store.Translate(ctx, a, b)

	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}
