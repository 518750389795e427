// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command radpow runs the proof-of-work search of an atom seed offline and
// prints the nonce and digest it finds.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/nadam/radixwallet/atom"
)

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed.
	if err := radpowMain(); err != nil {
		var flagErr *flags.Error
		if !errors.As(err, &flagErr) || flagErr.Type != flags.ErrHelp {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func radpowMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, cfg.Timeout)
		defer cancelTimeout()
	}

	log.Infof("Searching nonce for seed %v (magic=%d, difficulty=%d)",
		cfg.seed, cfg.Magic, cfg.Difficulty)

	start := time.Now()
	work, err := atom.FindNonce(ctx, cfg.Magic, cfg.seed, cfg.Difficulty)
	if err != nil {
		return fmt.Errorf("proof of work: %w", err)
	}

	if !atom.CheckWork(cfg.Magic, cfg.seed, work.Nonce, cfg.Difficulty) {
		return errors.New("found nonce does not satisfy the difficulty")
	}

	log.Infof("Found nonce after %v",
		time.Since(start).Round(time.Millisecond))

	fmt.Printf("seed:   %v\nnonce:  %d\ndigest: %v\n", cfg.seed,
		work.Nonce, work.Digest)

	return nil
}
