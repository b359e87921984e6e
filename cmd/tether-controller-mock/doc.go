// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// tether-controller-mock is a development controller for the Tether
// loader. It listens on the callback socket inside a data directory
// and performs the controller side of the bootstrap handshake against
// real injected loaders: receive the announced pid, cross-check it
// against the socket's SO_PEERCRED credentials, optionally verify the
// deployed agent module's BLAKE3 digest, send the configured
// rendezvous address, hold the configured settle window (where a real
// controller would freeze and thaw the target's threads), and send the
// resume token.
//
// It exists for integration testing and for developing agent modules
// without a full controller; nothing about the wire exchange is
// mocked, only the setup a production controller performs inside the
// settle window.
//
// Usage:
//
//	tether-controller-mock --config tether.yaml
//	tether-controller-mock --socket-dir /run/tether/t1 --address pipe://abc --once
package main
