// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader is the bootstrap core that runs inside a target
// process after injection. It is the minimal trusted bridge between
// "code has just started running inside a foreign process" and "a
// full-featured instrumentation agent is attached and talking to its
// controller."
//
// The package is organized around the bootstrap data flow:
//
//   - datadir.go: the patchable data directory placeholder
//   - wire.go: length-prefixed value codec over a stream socket
//   - handshake.go: the one-shot announce/address/resume exchange
//   - bootstrap.go: agent module load and entry-point handoff
//   - module.go: the module loading abstraction and its plugin backend
//
// On [Initialize] the loader connects to the controller's callback
// socket at <data_dir>/callback, announces the host process's pid,
// receives an opaque rendezvous address, dispatches a detached
// goroutine that loads the agent module and invokes its entry point
// with that address, and finally blocks until the controller sends the
// resume token. The token's arrival, not its content, is the signal
// that the controller has finished whatever concurrent setup it needed
// (such as freezing and thawing the target's threads) and the host
// process may continue starting.
//
// The loader runs ambient inside a process it does not own. Every
// failure after injection degrades silently: the handshake aborts, the
// socket is closed, and the host's startup path continues undisturbed.
// Diagnostics are opt-in through [Options].Logger; the default logger
// discards everything.
package loader
