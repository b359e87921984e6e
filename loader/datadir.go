// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"fmt"
)

// DataDirCapacity is the fixed size of the patchable data directory
// region. The patch tool overwrites the placeholder inside the compiled
// binary in place; the region can never grow, so a configured path plus
// its NUL terminator must fit within this many bytes.
const DataDirCapacity = 256

// dataDirMagic is the 32-byte marker that identifies the patchable
// region inside a compiled binary. The full placeholder is the marker
// repeated to capacity, giving the patch tool a contiguous 256-byte
// region to overwrite.
const dataDirMagic = "tether-data-dir:VqX3kP9mZcL5wRb2"

// dataDirPlaceholder is the compile-time content of the patchable
// region: dataDirMagic repeated 8 times, exactly DataDirCapacity bytes.
const dataDirPlaceholder = dataDirMagic + dataDirMagic + dataDirMagic + dataDirMagic +
	dataDirMagic + dataDirMagic + dataDirMagic + dataDirMagic

// dataDir is the runtime copy of the patchable region. It is populated
// once from the (possibly patched) placeholder literal before any other
// code in this package runs, and only read thereafter, so the handshake
// and bootstrap goroutines share it without locking. SetDataDir is the
// one exception; it must not race with a running handshake.
var dataDir [DataDirCapacity]byte

func init() {
	copy(dataDir[:], dataDirPlaceholder)
}

// Placeholder returns the compile-time placeholder content. The patch
// tool scans a built binary for exactly these bytes and overwrites them
// with a NUL-terminated directory path, zero-filling the remainder.
func Placeholder() []byte {
	return []byte(dataDirPlaceholder)
}

// DataDir returns the configured data directory: the directory holding
// the controller's callback socket and the agent module. Returns the
// empty string when the placeholder was never patched or the patched
// content is not NUL-terminated, in which case the handshake aborts
// before touching the filesystem.
func DataDir() string {
	if string(dataDir[:len(dataDirMagic)]) == dataDirMagic {
		return ""
	}
	end := bytes.IndexByte(dataDir[:], 0)
	if end < 0 {
		return ""
	}
	return string(dataDir[:end])
}

// SetDataDir configures the data directory at runtime, bypassing the
// binary patch mechanism. Intended for tests and for embedders that
// link the loader directly instead of injecting a patched library.
// The path plus its NUL terminator must fit in DataDirCapacity bytes.
// Not safe to call concurrently with a running handshake.
func SetDataDir(path string) error {
	if len(path)+1 > DataDirCapacity {
		return fmt.Errorf("data directory path is %d bytes, capacity is %d including terminator", len(path), DataDirCapacity)
	}
	var region [DataDirCapacity]byte
	copy(region[:], path)
	dataDir = region
	return nil
}
