// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrStateForbidden is returned when an operation cannot be performed
	// due to the current state of the wallet (e.g., not started, stopping).
	ErrStateForbidden = errors.New("operation forbidden in current state")

	// ErrWalletAlreadyStarted is returned when Start is called on a wallet
	// that is not stopped.
	ErrWalletAlreadyStarted = errors.New("wallet already started")
)

// lifecycle represents the lifecycle state of the wallet.
type lifecycle uint32

const (
	// lifecycleStopped indicates the wallet is stopped.
	lifecycleStopped lifecycle = iota

	// lifecycleStarting indicates the wallet is starting up.
	lifecycleStarting

	// lifecycleStarted indicates the wallet is started.
	lifecycleStarted

	// lifecycleStopping indicates the wallet is currently stopping.
	lifecycleStopping
)

// String returns the string representation of a lifecycle.
func (l lifecycle) String() string {
	switch l {
	case lifecycleStopped:
		return "stopped"

	case lifecycleStarting:
		return "starting"

	case lifecycleStarted:
		return "started"

	case lifecycleStopping:
		return "stopping"

	default:
		return "unknown lifecycle state"
	}
}

// walletState is a thread-safe wrapper around the lifecycle of the wallet.
// Actions are only accepted while the wallet is started, so a stopping
// wallet never launches a new submission.
type walletState struct {
	// lifecycle tracks the start/stop state of the wallet.
	lifecycle atomic.Uint32
}

// String returns a summary of the wallet's state.
func (s *walletState) String() string {
	return fmt.Sprintf("status=%v", lifecycle(s.lifecycle.Load()))
}

// toStarting transitions the wallet state from Stopped to Starting. It
// returns an error if the wallet is not in the Stopped state.
func (s *walletState) toStarting() error {
	if !s.lifecycle.CompareAndSwap(
		uint32(lifecycleStopped), uint32(lifecycleStarting)) {

		return fmt.Errorf("%w: current state is %v",
			ErrWalletAlreadyStarted, lifecycle(s.lifecycle.Load()))
	}

	return nil
}

// toStarted marks the wallet as fully started. This should be called only
// after all resource initialization is complete.
func (s *walletState) toStarted() {
	s.lifecycle.Store(uint32(lifecycleStarted))
}

// toStopping transitions the wallet from Started to Stopping. It returns an
// error if the wallet is not running.
func (s *walletState) toStopping() error {
	if !s.lifecycle.CompareAndSwap(
		uint32(lifecycleStarted), uint32(lifecycleStopping)) {

		// If we are not Started, we cannot Stop.
		// This covers Stopped, Starting, and Stopping.
		return ErrStateForbidden
	}

	return nil
}

// toStopped marks the wallet as fully stopped.
func (s *walletState) toStopped() {
	s.lifecycle.Store(uint32(lifecycleStopped))
}

// isStarted returns true if the wallet is in the Started state.
func (s *walletState) isStarted() bool {
	return lifecycle(s.lifecycle.Load()) == lifecycleStarted
}

// isRunning returns true if the wallet is in any active state (not stopped
// or stopping).
func (s *walletState) isRunning() bool {
	lc := lifecycle(s.lifecycle.Load())
	return lc != lifecycleStopped && lc != lifecycleStopping
}

// validateStarted checks if the wallet is currently running.
func (s *walletState) validateStarted() error {
	if !s.isStarted() {
		return fmt.Errorf("%w: wallet %v", ErrStateForbidden,
			lifecycle(s.lifecycle.Load()))
	}

	return nil
}
