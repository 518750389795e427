// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package spendable tracks the unspent particles of addresses. Every address
// is backed by a single ledger stream folded by one goroutine, whose
// snapshots are shared by all subscribers of that address.
package spendable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/address"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/internal/broadcast"
	"github.com/nadam/radixwallet/ledger"
	"github.com/nadam/radixwallet/pkg/radunit"
)

var (
	// ErrSetStopped is returned when the set is used after Stop.
	ErrSetStopped = errors.New("spendable set stopped")

	// ErrStreamEnded is returned when the ledger stream of an address
	// ended before the address was synced.
	ErrStreamEnded = errors.New("address stream ended")
)

// Source opens per-address atom streams. It is implemented by
// ledger.Ledger.
type Source interface {
	AtomsForAddress(ctx context.Context, addr address.Address,
		kind atom.Kind) (<-chan ledger.Observation, error)
}

// Set is the unspent set of every address subscribed so far.
type Set struct {
	source Source

	ctx    context.Context
	cancel context.CancelFunc
	gm     *fn.GoroutineManager

	// balanceWorkers counts the running Balance goroutines.
	balanceWorkers atomic.Int64

	mu      sync.Mutex
	folds   map[atom.EUID]*foldEntry
	stopped bool
}

// foldEntry is the fold of one address. The ledger stream is opened without
// holding the set mutex, so concurrent subscribers of the address wait on
// ready while other addresses proceed.
type foldEntry struct {
	ready chan struct{}

	// fold and err are set before ready is closed.
	fold *fold
	err  error
}

// New creates a set reading atoms from source.
func New(source Source) *Set {
	ctx, cancel := context.WithCancel(context.Background())

	return &Set{
		source: source,
		ctx:    ctx,
		cancel: cancel,
		gm:     fn.NewGoroutineManager(),
		folds:  make(map[atom.EUID]*foldEntry),
	}
}

// Subscribe returns a client receiving the snapshots of addr, starting with
// the latest one. The ledger stream of the address is opened by the first
// subscription only.
func (s *Set) Subscribe(
	addr address.Address) (*broadcast.Client[Snapshot], error) {

	f, err := s.foldFor(addr)
	if err != nil {
		return nil, err
	}

	return f.hub.Subscribe()
}

// foldFor returns the running fold of addr, starting it if needed.
func (s *Set) foldFor(addr address.Address) (*fold, error) {
	id := addr.EUID()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrSetStopped
	}

	if e, ok := s.folds[id]; ok {
		s.mu.Unlock()
		<-e.ready

		return e.fold, e.err
	}

	e := &foldEntry{ready: make(chan struct{})}
	s.folds[id] = e
	s.mu.Unlock()

	e.fold, e.err = s.startFold(addr, e)
	if e.err != nil {
		// A failed open is retried by the next subscriber.
		s.remove(id, e)
	}
	close(e.ready)

	return e.fold, e.err
}

// startFold opens the ledger stream of addr and runs its fold.
func (s *Set) startFold(addr address.Address, e *foldEntry) (*fold, error) {
	obs, err := s.source.AtomsForAddress(
		s.ctx, addr, atom.KindTransaction,
	)
	if err != nil {
		return nil, fmt.Errorf("atoms for %v: %w", addr, err)
	}

	f := newFold(addr)
	if err := f.hub.Start(); err != nil {
		return nil, err
	}

	id := addr.EUID()
	if !s.gm.Go(s.ctx, func(ctx context.Context) {
		f.run(ctx, obs)
		s.remove(id, e)
	}) {
		_ = f.hub.Stop()
		return nil, ErrSetStopped
	}

	log.Debugf("Started spendable fold for %v", addr)

	return f, nil
}

// remove forgets the fold once its stream ended so the next subscription
// opens a new one.
func (s *Set) remove(id atom.EUID, e *foldEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folds[id] == e {
		delete(s.folds, id)
	}
}

// Spendable returns the first synced snapshot of addr. It is a point in time
// view used for input selection.
func (s *Set) Spendable(ctx context.Context,
	addr address.Address) (Snapshot, error) {

	client, err := s.Subscribe(addr)
	if err != nil {
		return Snapshot{}, err
	}
	defer client.Cancel()

	for {
		select {
		case snap, ok := <-client.Updates():
			if !ok {
				return Snapshot{}, fmt.Errorf("%w: %v",
					ErrStreamEnded, addr)
			}

			if snap.Synced {
				return snap, nil
			}

		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// Balance returns a client receiving the balance of the asset held by addr.
// A value is sent for the first synced snapshot and then whenever the
// balance changes, until ctx is done.
func (s *Set) Balance(ctx context.Context, addr address.Address,
	asset radunit.Asset) (*broadcast.Client[radunit.Amount], error) {

	snapshots, err := s.Subscribe(addr)
	if err != nil {
		return nil, err
	}

	balances := broadcast.NewHub[radunit.Amount](broadcast.ReplayLatest)
	if err := balances.Start(); err != nil {
		snapshots.Cancel()
		return nil, err
	}

	client, err := balances.Subscribe()
	if err != nil {
		snapshots.Cancel()
		_ = balances.Stop()

		return nil, err
	}

	s.balanceWorkers.Add(1)
	started := s.gm.Go(ctx, func(ctx context.Context) {
		defer s.balanceWorkers.Add(-1)
		defer snapshots.Cancel()
		defer balances.Close()

		for {
			select {
			case snap, ok := <-snapshots.Updates():
				if !ok {
					return
				}
				if !snap.Synced {
					continue
				}

				if balances.Publish(snap.Balance(asset)) != nil {
					return
				}

			case <-client.Quit():
				return

			case <-ctx.Done():
				return
			}
		}
	})
	if !started {
		s.balanceWorkers.Add(-1)
		snapshots.Cancel()
		_ = balances.Stop()

		return nil, ErrSetStopped
	}

	return client, nil
}

// Stop ends every fold and the streams of their subscribers.
func (s *Set) Stop() {
	s.mu.Lock()
	s.stopped = true
	folds := s.folds
	s.folds = make(map[atom.EUID]*foldEntry)
	s.mu.Unlock()

	s.cancel()
	s.gm.Stop()

	for _, e := range folds {
		<-e.ready
		if e.fold != nil {
			_ = e.fold.hub.Stop()
		}
	}
}
