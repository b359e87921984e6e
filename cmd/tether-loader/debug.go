// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

//go:build tetherdebug

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tether-foundation/tether/lib/trace"
	"github.com/tether-foundation/tether/loader"
)

// initialize runs the handshake with the CBOR trace side channel
// enabled. Debug builds only (-tags tetherdebug); the trace stream is
// a development aid, not part of the loader's external interface. If
// the trace file cannot be opened, the handshake still runs — silently,
// as in release builds.
//
// The file stays open for the process lifetime: the bootstrap
// goroutine outlives the initialize call and keeps logging through it.
func initialize() {
	options := loader.Options{}
	traceFile, err := os.OpenFile(
		filepath.Join(os.TempDir(), "tether-loader.trace"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err == nil {
		options.Logger = slog.New(trace.NewHandler(traceFile, nil))
	}
	loader.InitializeWithOptions(options)
}
