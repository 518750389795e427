// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/nadam/radixwallet/atom"
	"github.com/nadam/radixwallet/ledger/memledger"
	"github.com/nadam/radixwallet/spendable"
	"github.com/nadam/radixwallet/transfers"
	"github.com/nadam/radixwallet/wallet"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}

	return len(p), nil
}

var (
	// backendLog is the logging backend used to create all subsystem
	// loggers.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	log       = backendLog.Logger("RPOW")
	atomLog   = backendLog.Logger("ATOM")
	ledgerLog = backendLog.Logger("LEDG")
	spendLog  = backendLog.Logger("SPND")
	xferLog   = backendLog.Logger("XFER")
	walletLog = backendLog.Logger("WLLT")
)

// Initialize package-global logger variables.
func init() {
	atom.UseLogger(atomLog)
	memledger.UseLogger(ledgerLog)
	spendable.UseLogger(spendLog)
	transfers.UseLogger(xferLog)
	wallet.UseLogger(walletLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"RPOW": log,
	"ATOM": atomLog,
	"LEDG": ledgerLog,
	"SPND": spendLog,
	"XFER": xferLog,
	"WLLT": walletLog,
}

// initLogRotator initializes the logging rotator to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotator variables are used.
func initLogRotator(logFile string, maxSizeKB, maxFiles int) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, int64(maxSizeKB), false, maxFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	logRotator = r

	return nil
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level. Invalid levels are ignored.
func setLogLevels(logLevel string) {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return
	}

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
