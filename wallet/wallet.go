// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet turns high level actions into stored atoms and exposes the
// balances, transfers and data of addresses.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/actions"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/data"
	"github.com/nadam/radixwallet/identity"
	"github.com/nadam/radixwallet/internal/broadcast"
	"github.com/nadam/radixwallet/ledger"
	"github.com/nadam/radixwallet/pkg/radunit"
	"github.com/nadam/radixwallet/spendable"
	"github.com/nadam/radixwallet/transfers"
)

var (
	// ErrMissingIdentity is returned when the config has no identity.
	ErrMissingIdentity = errors.New("wallet config: missing identity")

	// ErrMissingLedger is returned when the config has no ledger.
	ErrMissingLedger = errors.New("wallet config: missing ledger")
)

// Config holds the collaborators and settings of a Wallet.
type Config struct {
	// Identity signs the atoms of the wallet and decrypts its data.
	Identity identity.Identity

	// Ledger is the node the wallet reads from and submits to.
	Ledger ledger.Ledger

	// Spendable is the unspent set shared with other wallets on the same
	// ledger. The wallet creates and owns its own set when nil.
	Spendable *spendable.Set

	// Clock stamps atoms and particle nonces. Defaults to the system
	// clock.
	Clock clock.Clock

	// Difficulty is the proof-of-work difficulty. Defaults to
	// atom.DefaultDifficulty.
	Difficulty uint8
}

// Wallet is the entry point for the actions and queries of one identity.
type Wallet struct {
	cfg   Config
	state walletState

	address       address.Address
	ownsSpendable bool
	store         *DataStoreTranslator

	// The fields below are replaced on every Start.
	spendable *spendable.Set
	transfers *TokenTransferTranslator
	pipeline  *Pipeline
	streams   *fn.GoroutineManager
}

// New creates a stopped wallet.
func New(cfg *Config) (*Wallet, error) {
	switch {
	case cfg.Identity == nil:
		return nil, ErrMissingIdentity

	case cfg.Ledger == nil:
		return nil, ErrMissingLedger
	}

	c := *cfg
	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.Difficulty == 0 {
		c.Difficulty = atom.DefaultDifficulty
	}

	addr := c.Ledger.AddressFromPublicKey(c.Identity.PublicKey())

	return &Wallet{
		cfg:           c,
		address:       addr,
		ownsSpendable: c.Spendable == nil,
		store:         NewDataStoreTranslator(c.Clock),
	}, nil
}

// Start makes the wallet accept actions and queries.
func (w *Wallet) Start(startCtx context.Context) error {
	// 1. Attempt to transition from Stopped to Starting.
	if err := w.state.toStarting(); err != nil {
		return err
	}

	// 2. The start is abandoned if its context is already done.
	if err := startCtx.Err(); err != nil {
		w.state.toStopped()
		return err
	}

	// 3. Setup the per-run resources. A stopped set cannot be restarted,
	// so an owned one is created on every start.
	w.spendable = w.cfg.Spendable
	if w.ownsSpendable {
		w.spendable = spendable.New(w.cfg.Ledger)
	}
	w.transfers = NewTokenTransferTranslator(w.spendable, w.cfg.Clock)

	w.pipeline = NewPipeline(PipelineConfig{
		Magic:      w.cfg.Ledger.Magic(),
		Difficulty: w.cfg.Difficulty,
		Translator: &Translators{
			Transfer: w.transfers,
			Store:    w.store,
		},
		Identity:  w.cfg.Identity,
		Submitter: w.cfg.Ledger,
	})
	w.streams = fn.NewGoroutineManager()

	// 4. Mark the wallet as fully started.
	w.state.toStarted()
	log.Infof("Wallet %v started", w.address)

	return nil
}

// Stop cancels every running submission and query stream and waits for
// them to exit. It returns an error if the context is canceled before the
// shutdown is complete.
func (w *Wallet) Stop(stopCtx context.Context) error {
	if err := w.state.toStopping(); err != nil {
		// If the wallet is not started, we can consider it stopped.
		log.Warnf("Wallet already stopped: %v", err)
		return nil
	}

	done := make(chan struct{})
	go func() {
		w.pipeline.Stop()
		w.streams.Stop()
		if w.ownsSpendable {
			w.spendable.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-stopCtx.Done():
		return fmt.Errorf("stop request cancelled: %w", stopCtx.Err())
	}

	w.state.toStopped()
	log.Infof("Wallet %v stopped", w.address)

	return nil
}

// Address returns the address of the wallet identity.
func (w *Wallet) Address() address.Address {
	return w.address
}

// Balance returns a client receiving the balance of the asset held by addr
// until ctx is done.
func (w *Wallet) Balance(ctx context.Context, addr address.Address,
	asset radunit.Asset) (*broadcast.Client[radunit.Amount], error) {

	if err := w.state.validateStarted(); err != nil {
		return nil, err
	}

	return w.spendable.Balance(ctx, addr, asset)
}

// TokenTransfers streams the transfers of the asset in and out of addr in
// the order they were accepted, until ctx is done.
func (w *Wallet) TokenTransfers(ctx context.Context, addr address.Address,
	asset radunit.Asset) (<-chan actions.TokenTransfer, error) {

	history := transfers.NewHistory(addr, asset)

	return stream(ctx, w, addr, atom.KindTransaction,
		func(ctx context.Context, a *atom.Atom,
			out chan<- actions.TokenTransfer) bool {

			for _, accepted := range history.Accept(a) {
				t, ok := w.transfers.FromAtom(accepted, addr, asset)
				if !ok {
					continue
				}

				select {
				case out <- t:
				case <-ctx.Done():
					return false
				}
			}

			return true
		},
	)
}

// ReadableData streams the data stored for addr that the wallet identity can
// read, until ctx is done. Data it cannot decode or decrypt is skipped.
func (w *Wallet) ReadableData(ctx context.Context,
	addr address.Address) (<-chan *data.Unencrypted, error) {

	seen := make(map[atom.EUID]struct{})

	return stream(ctx, w, addr, atom.KindPayload,
		func(ctx context.Context, a *atom.Atom,
			out chan<- *data.Unencrypted) bool {

			id := a.ID()
			if _, ok := seen[id]; ok {
				return true
			}
			seen[id] = struct{}{}

			d, err := w.store.FromAtom(a)
			if err != nil {
				log.Debugf("Skipping payload of atom %v: %v", id,
					err)
				return true
			}

			plain, err := w.cfg.Identity.Decrypt(ctx, d)
			if err != nil {
				log.Debugf("Skipping data of atom %v: %v", id, err)
				return true
			}

			select {
			case out <- plain:
				return true
			case <-ctx.Done():
				return false
			}
		},
	)
}

// stream reads the atoms of addr on a goroutine of the wallet and hands them
// to handle until it returns false, the ledger stream ends or ctx is done.
func stream[T any](ctx context.Context, w *Wallet, addr address.Address,
	kind atom.Kind, handle func(context.Context, *atom.Atom,
		chan<- T) bool) (<-chan T, error) {

	if err := w.state.validateStarted(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	obs, err := w.cfg.Ledger.AtomsForAddress(ctx, addr, kind)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("atoms for %v: %w", addr, err)
	}

	out := make(chan T)
	started := w.streams.Go(ctx, func(ctx context.Context) {
		defer cancel()
		defer close(out)

		for {
			select {
			case o, ok := <-obs:
				if !ok {
					return
				}
				if o.Atom == nil {
					continue
				}
				if !handle(ctx, o.Atom, out) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	})
	if !started {
		err := ctx.Err()
		cancel()
		close(out)

		if err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: wallet stopping", ErrStateForbidden)
	}

	return out, nil
}

// Execute submits the action.
func (w *Wallet) Execute(ctx context.Context,
	action actions.Action) (*Result, error) {

	if err := w.state.validateStarted(); err != nil {
		return nil, err
	}

	return w.pipeline.Execute(ctx, action), nil
}

// TransferTokens moves amount from from to to. The identity of the wallet
// must own the inputs of from.
func (w *Wallet) TransferTokens(ctx context.Context, from,
	to address.Address, amount radunit.Amount,
	opts ...actions.TransferOption) (*Result, error) {

	action, err := actions.NewTransferTokens(from, to, amount, opts...)
	if err != nil {
		return nil, err
	}

	return w.Execute(ctx, action)
}

// SendTokens moves amount from the wallet address to to.
func (w *Wallet) SendTokens(ctx context.Context, to address.Address,
	amount radunit.Amount, opts ...actions.TransferOption) (*Result,
	error) {

	return w.TransferTokens(ctx, w.address, to, amount, opts...)
}

// StoreData stores the data for the given addresses, or for the wallet
// address when none is given.
func (w *Wallet) StoreData(ctx context.Context, d *data.Data,
	addrs ...address.Address) (*Result, error) {

	if len(addrs) == 0 {
		addrs = []address.Address{w.address}
	}

	action, err := actions.NewDataStore(d, addrs...)
	if err != nil {
		return nil, err
	}

	return w.Execute(ctx, action)
}
