// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest of a deployed artifact: an agent
// module or a patched loader binary.
type Digest [32]byte

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash function (via io.Copy) to keep memory
// usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// HashBytes computes the BLAKE3 digest of data.
func HashBytes(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// String returns the hex encoding of the digest. This is the canonical
// format used in controller configuration, patch tool output, and logs.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses a hex-encoded BLAKE3 digest string. Returns an
// error if the string is not a valid 64-character hex encoding of
// 32 bytes.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
