// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !tetherdebug

package main

import "github.com/tether-foundation/tether/loader"

// initialize runs the handshake fully silent. Production loaders have
// no diagnostic output of any kind.
func initialize() {
	loader.Initialize()
}
