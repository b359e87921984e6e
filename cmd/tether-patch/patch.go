// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"

	"github.com/tether-foundation/tether/loader"
)

// patchDataDir overwrites every occurrence of the data directory
// placeholder in data with dir, NUL-terminated and zero-filled to the
// region's fixed capacity. The region never grows: a path that does
// not fit (with its terminator) is rejected before anything is
// modified. Returns the number of regions patched.
//
// The Go toolchain may deduplicate the placeholder literal, but
// nothing guarantees a single copy, so all occurrences are patched —
// a binary where one copy feeds the runtime init and another survives
// unpatched would be configuration-dependent on link order.
func patchDataDir(data []byte, dir string) (int, error) {
	if len(dir)+1 > loader.DataDirCapacity {
		return 0, fmt.Errorf("data directory path is %d bytes, capacity is %d including terminator",
			len(dir), loader.DataDirCapacity)
	}

	region := make([]byte, loader.DataDirCapacity)
	copy(region, dir)

	placeholder := loader.Placeholder()
	patched := 0
	for offset := 0; ; {
		i := bytes.Index(data[offset:], placeholder)
		if i < 0 {
			break
		}
		copy(data[offset+i:], region)
		offset += i + loader.DataDirCapacity
		patched++
	}
	if patched == 0 {
		return 0, fmt.Errorf("no placeholder region found; already patched, or not a tether loader binary")
	}
	return patched, nil
}
