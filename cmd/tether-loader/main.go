// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// tether-loader is the deployable form of the loader core: a shared
// library injected into a target process. Build it with:
//
//	go build -buildmode=c-shared -o libtether.so ./cmd/tether-loader
//
// then patch the data directory into the result with tether-patch.
// The injection mechanism (out of scope here) maps the library into
// the target and calls TetherInitialize exactly once; the call blocks
// until the controller sends the resume token, then returns control to
// the target's normal startup path.
package main

import "C"

//export TetherInitialize
func TetherInitialize() {
	initialize()
}

func main() {}
