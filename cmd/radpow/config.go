// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/jessevdk/go-flags"
	"github.com/nadam/radixwallet/atom"
)

const (
	defaultLogLevel       = "info"
	defaultLogFilename    = "radpow.log"
	defaultMaxLogFileSize = 10
	defaultMaxLogFiles    = 3
)

// config defines the configuration options for radpow.
type config struct {
	Magic      uint32        `long:"magic" description:"Network magic mixed into the proof of work"`
	Seed       string        `long:"seed" description:"Hex encoded 32 byte seed; a random seed is used when empty"`
	Difficulty uint8         `long:"difficulty" description:"Number of leading zero bits the digest must have"`
	Timeout    time.Duration `long:"timeout" description:"Give up the search after this duration; 0 disables the limit"`

	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	LogDir         string `long:"logdir" description:"Directory to log output; file logging is disabled when empty"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum log file size in KB before it is rotated"`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum number of rotated log files to keep"`

	seed atom.Hash
}

// loadConfig parses the command line and validates the options.
func loadConfig() (*config, error) {
	cfg := config{
		Difficulty:     atom.DefaultDifficulty,
		DebugLevel:     defaultLogLevel,
		MaxLogFileSize: defaultMaxLogFileSize,
		MaxLogFiles:    defaultMaxLogFiles,
	}

	if _, err := flags.Parse(&cfg); err != nil {
		return nil, err
	}

	if _, ok := btclog.LevelFromString(cfg.DebugLevel); !ok {
		return nil, fmt.Errorf("invalid debuglevel %q", cfg.DebugLevel)
	}

	seed, err := parseSeed(cfg.Seed)
	if err != nil {
		return nil, err
	}
	cfg.seed = seed

	if cfg.LogDir != "" {
		logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
		err := initLogRotator(
			logFile, cfg.MaxLogFileSize, cfg.MaxLogFiles,
		)
		if err != nil {
			return nil, err
		}
	}
	setLogLevels(cfg.DebugLevel)

	return &cfg, nil
}

// parseSeed decodes a hex seed or draws a random one when s is empty.
func parseSeed(s string) (atom.Hash, error) {
	var seed atom.Hash

	if s == "" {
		if _, err := rand.Read(seed[:]); err != nil {
			return seed, fmt.Errorf("random seed: %w", err)
		}

		return seed, nil
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("invalid seed: %w", err)
	}
	if len(b) != atom.HashSize {
		return seed, fmt.Errorf("invalid seed: %d bytes, want %d",
			len(b), atom.HashSize)
	}
	copy(seed[:], b)

	return seed, nil
}
