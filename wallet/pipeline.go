// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nadam/radixwallet/actions"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/identity"
	"github.com/nadam/radixwallet/ledger"
)

// ErrPipelineStopped is the cause of submissions started after Stop.
var ErrPipelineStopped = errors.New("submission pipeline stopped")

// Submitter sends signed atoms to the ledger. It is implemented by
// ledger.Ledger.
type Submitter interface {
	SubmitAtom(ctx context.Context,
		a *atom.Signed) (<-chan ledger.SubmissionUpdate, error)
}

// PipelineConfig holds the collaborators of a Pipeline.
type PipelineConfig struct {
	// Magic is the network magic mixed into the proof of work.
	Magic uint32

	// Difficulty is the number of leading zero bits of the proof of
	// work.
	Difficulty uint8

	// Translator populates the atom of an action.
	Translator Translator

	// Identity signs the atoms and pays their fee.
	Identity identity.Identity

	// Submitter sends the signed atoms.
	Submitter Submitter
}

// Pipeline turns actions into stored atoms: translate, build with fee,
// sign and submit. Each action runs on its own goroutine and reports its
// progress through the returned Result only.
type Pipeline struct {
	cfg PipelineConfig
	gm  *fn.GoroutineManager
}

// NewPipeline creates a pipeline with the given collaborators.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		gm:  fn.NewGoroutineManager(),
	}
}

// Execute starts the submission of the action. It runs until it completes,
// ctx is done or the result is canceled.
func (p *Pipeline) Execute(ctx context.Context, action actions.Action) *Result {
	ctx, cancel := context.WithCancel(ctx)
	r := newResult(cancel)

	log.Infof("Result %v: executing %v", r.ID(), action)

	started := p.gm.Go(ctx, func(ctx context.Context) {
		p.run(ctx, r, action)
	})
	if !started {
		cause := ErrPipelineStopped
		if err := ctx.Err(); err != nil {
			cause = err
		}
		r.advance(failure(ledger.NetworkError, atom.Hash{}, cause))
	}

	return r
}

// Stop cancels every running submission and waits for them to complete.
func (p *Pipeline) Stop() {
	p.gm.Stop()
}

// run carries the action through every stage. Each stage error ends the
// submission with a terminal update.
func (p *Pipeline) run(ctx context.Context, r *Result,
	action actions.Action) {

	b := atom.NewBuilder(atom.WithDifficulty(p.cfg.Difficulty))
	if err := p.cfg.Translator.Translate(ctx, action, b); err != nil {
		r.advance(localFailure(atom.Hash{}, "translate", err))
		return
	}

	unsigned, err := b.BuildWithFee(
		ctx, p.cfg.Magic, p.cfg.Identity.PublicKey(),
	)
	if err != nil {
		r.advance(localFailure(atom.Hash{}, "fee", err))
		return
	}

	hash := unsigned.Hash()
	signed, err := p.cfg.Identity.Sign(ctx, unsigned)
	if err != nil {
		r.advance(localFailure(hash, "sign", err))
		return
	}

	r.advance(ledger.SubmissionUpdate{State: ledger.Created, Hash: hash})

	updates, err := p.cfg.Submitter.SubmitAtom(ctx, signed)
	if err != nil {
		r.advance(failure(
			ledger.NetworkError, hash, fmt.Errorf("submit: %w", err),
		))

		return
	}

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				err := errors.New("submission stream ended " +
					"without outcome")
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				r.advance(failure(ledger.NetworkError, hash, err))

				return
			}

			if u.Hash == (atom.Hash{}) {
				u.Hash = hash
			}
			r.advance(u)

			if u.IsComplete() {
				return
			}

		case <-ctx.Done():
			r.advance(failure(ledger.NetworkError, hash, ctx.Err()))
			return
		}
	}
}

// localFailure turns the error of a local stage into a terminal update. A
// canceled stage is a network error, every other one makes the atom
// invalid.
func localFailure(hash atom.Hash, stage string,
	err error) ledger.SubmissionUpdate {

	err = fmt.Errorf("%s: %w", stage, err)
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {

		return failure(ledger.NetworkError, hash, err)
	}

	return failure(ledger.ValidationError, hash, err)
}

func failure(state ledger.SubmissionState, hash atom.Hash,
	err error) ledger.SubmissionUpdate {

	return ledger.SubmissionUpdate{
		State:   state,
		Message: err.Error(),
		Hash:    hash,
		Err:     err,
	}
}
