// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/actions"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/data"
	"github.com/nadam/radixwallet/pkg/radunit"
	"github.com/nadam/radixwallet/spendable"
)

// SpendableSource returns a point in time view of the unspent particles of
// an address. It is implemented by *spendable.Set.
type SpendableSource interface {
	Spendable(ctx context.Context,
		addr address.Address) (spendable.Snapshot, error)
}

// inputSource accumulates candidate particles until the target is reached
// and returns the accumulated total and particles.
type inputSource func(target int64) (int64, []atom.Particle)

// makeInputSource creates an input source that greedily consumes the
// eligible particles in their arrival order.
func makeInputSource(eligible []atom.Particle) inputSource {
	// Current inputs and their total. These are closed over by the
	// returned input source and reused across multiple calls.
	var currentTotal int64
	currentInputs := make([]atom.Particle, 0, len(eligible))

	return func(target int64) (int64, []atom.Particle) {
		for currentTotal < target && len(eligible) != 0 {
			next := eligible[0]
			eligible = eligible[1:]

			currentTotal += next.Quantity
			currentInputs = append(currentInputs, next)
		}

		return currentTotal, currentInputs
	}
}

// TokenTransferTranslator turns transfers into input, change and recipient
// particles.
//
// Concurrent transfers from the same address may select the same inputs;
// the ledger only stores the first of the conflicting atoms.
type TokenTransferTranslator struct {
	spendable SpendableSource
	clock     clock.Clock

	mu        sync.Mutex
	lastNonce uint64
}

// NewTokenTransferTranslator creates a translator selecting inputs from s.
func NewTokenTransferTranslator(s SpendableSource,
	c clock.Clock) *TokenTransferTranslator {

	return &TokenTransferTranslator{spendable: s, clock: c}
}

// A compile time check to ensure TokenTransferTranslator satisfies
// Translator.
var _ Translator = (*TokenTransferTranslator)(nil)

// Translate spends enough unspent particles of the sender to pay the amount
// to the recipient and returns the surplus to the sender. It fails with
// ErrInsufficientFunds before the builder is touched if the sender does not
// hold enough of the asset.
func (t *TokenTransferTranslator) Translate(ctx context.Context,
	action actions.Action, b *atom.Builder) error {

	transfer, ok := action.(*actions.TransferTokensAction)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	from, to, amount := transfer.From(), transfer.To(), transfer.Amount()
	asset := amount.Asset

	snap, err := t.spendable.Spendable(ctx, from)
	if err != nil {
		return fmt.Errorf("unspent particles of %v: %w", from, err)
	}

	total, inputs := makeInputSource(snap.Of(asset.ID()))(amount.SubUnits)
	if total < amount.SubUnits {
		return fmt.Errorf("%w: %v holds %v, transfer needs %v",
			ErrInsufficientFunds, from,
			radunit.SubUnitsOf(total, asset), amount)
	}

	log.Debugf("Selected %d inputs worth %v for %v", len(inputs),
		radunit.SubUnitsOf(total, asset), transfer)

	for _, p := range inputs {
		if err := b.AddParticle(p.Spend()); err != nil {
			return err
		}
	}

	if change := total - amount.SubUnits; change > 0 {
		err := b.AddParticle(atom.NewOutput(
			asset.ID(), change, from.PublicKey, t.nextNonce(),
		))
		if err != nil {
			return err
		}
	}

	err = b.AddParticle(atom.NewOutput(
		asset.ID(), amount.SubUnits, to.PublicKey, t.nextNonce(),
	))
	if err != nil {
		return err
	}

	var attachErr error
	transfer.Attachment().WhenSome(func(d data.Data) {
		attachErr = setPayload(b, &d)
	})
	if attachErr != nil {
		return attachErr
	}

	ts := transfer.Timestamp().UnwrapOrFunc(t.clock.Now)
	b.Kind(atom.KindTransaction).
		AddDestination(from.EUID()).
		AddDestination(to.EUID()).
		Timestamp(ts.UnixMilli())

	return nil
}

// nextNonce returns a particle nonce that is unique for this translator and
// increases with the clock.
func (t *TokenTransferTranslator) nextNonce() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	nonce := uint64(t.clock.Now().UnixNano())
	if nonce <= t.lastNonce {
		nonce = t.lastNonce + 1
	}
	t.lastNonce = nonce

	return nonce
}

// FromAtom rebuilds the transfer of asset seen from addr in the atom. It
// returns false if the atom does not move the asset in or out of addr.
func (t *TokenTransferTranslator) FromAtom(a *atom.Atom,
	addr address.Address, asset radunit.Asset) (actions.TokenTransfer,
	bool) {

	assetID, owner := asset.ID(), addr.EUID()

	var (
		net             int64
		touched         bool
		counterparty    []byte
		firstInputOwner []byte
		lastOutput      fn.Option[atom.Particle]
	)
	for _, p := range a.Particles {
		if p.IsFee() || p.Asset != assetID || len(p.Owners) == 0 {
			continue
		}

		if p.IsInput() && firstInputOwner == nil {
			firstInputOwner = p.Owners[0]
		}
		if p.IsOutput() {
			lastOutput = fn.Some(p)
		}

		if !p.OwnedBy(owner) {
			if p.IsOutput() && counterparty == nil {
				counterparty = p.Owners[0]
			}

			continue
		}

		touched = true
		net += p.Quantity
	}
	if !touched {
		return actions.TokenTransfer{}, false
	}

	transfer := actions.TokenTransfer{
		Timestamp: a.Time(),
	}

	switch {
	// Sent: the recipient owns an output we do not.
	case net < 0:
		transfer.From = addr
		transfer.To = ownerAddress(addr.Magic, counterparty)
		transfer.Amount = radunit.SubUnitsOf(-net, asset)

	// Received: the sender owns the inputs.
	case net > 0:
		transfer.From = ownerAddress(addr.Magic, firstInputOwner)
		transfer.To = addr
		transfer.Amount = radunit.SubUnitsOf(net, asset)

	// Sent to ourselves: the recipient output comes last.
	default:
		transfer.From = addr
		transfer.To = addr
		transfer.Amount = radunit.SubUnitsOf(
			fn.MapOptionZ(lastOutput, func(p atom.Particle) int64 {
				return p.Quantity
			}), asset,
		)
	}

	if len(a.Payload) > 0 {
		d, err := data.DecodeData(a.Payload)
		if err == nil {
			transfer.Attachment = fn.Some(*d)
		}
	}

	return transfer, true
}

// ownerAddress parses a compressed owner key. Unparsable or missing keys
// give the zero address, as for atoms minting new tokens.
func ownerAddress(magic uint32, owner []byte) address.Address {
	if owner == nil {
		return address.Address{}
	}

	pub, err := btcec.ParsePubKey(owner)
	if err != nil {
		return address.Address{}
	}

	return address.FromPublicKey(magic, pub)
}

// setPayload encodes the data into the payload of the atom.
func setPayload(b *atom.Builder, d *data.Data) error {
	payload, err := d.Encode()
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	return b.SetPayload(payload)
}
