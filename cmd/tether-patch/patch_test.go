// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tether-foundation/tether/loader"
)

// syntheticBinary builds a fake binary image with the placeholder at
// known offsets.
func syntheticBinary(placeholderCount int) []byte {
	var image bytes.Buffer
	image.WriteString("\x7fELF fake header ")
	for i := 0; i < placeholderCount; i++ {
		image.Write(loader.Placeholder())
		image.WriteString("inter-region padding")
	}
	image.WriteString("trailing section data")
	return image.Bytes()
}

func TestPatchDataDir(t *testing.T) {
	image := syntheticBinary(1)
	patched, err := patchDataDir(image, "/run/tether/target-1")
	if err != nil {
		t.Fatalf("patchDataDir: %v", err)
	}
	if patched != 1 {
		t.Errorf("patched %d regions, want 1", patched)
	}

	// The region now holds the NUL-terminated path.
	offset := bytes.Index(image, []byte("/run/tether/target-1\x00"))
	if offset < 0 {
		t.Fatal("patched path not found in image")
	}
	// And no placeholder bytes survive.
	if bytes.Contains(image, []byte(loader.Placeholder())) {
		t.Error("placeholder still present after patch")
	}
	// The rest of the region is zero-filled.
	region := image[offset : offset+loader.DataDirCapacity]
	for i := len("/run/tether/target-1") + 1; i < len(region); i++ {
		if region[i] != 0 {
			t.Fatalf("region byte %d is %#x, want zero fill", i, region[i])
		}
	}
}

func TestPatchDataDirAllOccurrences(t *testing.T) {
	image := syntheticBinary(3)
	patched, err := patchDataDir(image, "/tmp/t")
	if err != nil {
		t.Fatalf("patchDataDir: %v", err)
	}
	if patched != 3 {
		t.Errorf("patched %d regions, want 3", patched)
	}
	if bytes.Contains(image, []byte(loader.Placeholder())) {
		t.Error("placeholder still present after patch")
	}
	if got := bytes.Count(image, []byte("/tmp/t\x00")); got != 3 {
		t.Errorf("found %d patched regions, want 3", got)
	}
}

func TestPatchDataDirNoPlaceholder(t *testing.T) {
	image := []byte("a binary that was already patched")
	if _, err := patchDataDir(image, "/tmp/t"); err == nil {
		t.Fatal("patchDataDir succeeded with no placeholder present")
	}
}

func TestPatchDataDirPathTooLong(t *testing.T) {
	image := syntheticBinary(1)
	saved := append([]byte(nil), image...)

	tooLong := "/" + strings.Repeat("a", loader.DataDirCapacity-1)
	if _, err := patchDataDir(image, tooLong); err == nil {
		t.Fatal("patchDataDir accepted an oversized path")
	}
	if !bytes.Equal(image, saved) {
		t.Error("rejected patch still modified the image")
	}
}
