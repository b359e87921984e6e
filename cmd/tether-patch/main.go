// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// tether-patch configures a built Tether loader binary for deployment.
//
// The loader carries no runtime configuration surface: its data
// directory lives in a fixed-size placeholder region inside the binary,
// overwritten in place after the build. tether-patch finds that region
// and writes the NUL-terminated directory path into it:
//
//	tether-patch --binary libtether.so --data-dir /run/tether/target-1
//
// With --print-digest it also prints the BLAKE3 digest of the patched
// binary, and --digest prints the digest of any file (typically the
// agent module, for the controller's agent_module_digest setting):
//
//	tether-patch --digest tether-agent.so
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tether-foundation/tether/lib/binhash"
	"github.com/tether-foundation/tether/lib/process"
	"github.com/tether-foundation/tether/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		binaryPath  string
		dataDir     string
		digestPath  string
		printDigest bool
	)

	flagSet := pflag.NewFlagSet("tether-patch", pflag.ContinueOnError)
	flagSet.StringVar(&binaryPath, "binary", "", "loader binary to patch in place")
	flagSet.StringVar(&dataDir, "data-dir", "", "data directory path to write into the placeholder")
	flagSet.StringVar(&digestPath, "digest", "", "print the BLAKE3 digest of this file and exit")
	flagSet.BoolVar(&printDigest, "print-digest", false, "print the patched binary's BLAKE3 digest")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("tether-patch")
		return nil
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if digestPath != "" {
		digest, err := binhash.HashFile(digestPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", digest, digestPath)
		return nil
	}

	if binaryPath == "" || dataDir == "" {
		return fmt.Errorf("usage: tether-patch --binary <path> --data-dir <dir>, or tether-patch --digest <file>")
	}
	return patchBinary(binaryPath, dataDir, printDigest)
}

// patchBinary rewrites the placeholder regions in the file at
// binaryPath, preserving its permissions.
func patchBinary(binaryPath, dataDir string, printDigest bool) error {
	info, err := os.Stat(binaryPath)
	if err != nil {
		return fmt.Errorf("inspecting binary: %w", err)
	}
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return fmt.Errorf("reading binary: %w", err)
	}

	patched, err := patchDataDir(data, dataDir)
	if err != nil {
		return err
	}
	if err := os.WriteFile(binaryPath, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing patched binary: %w", err)
	}
	fmt.Printf("patched %d region(s) in %s\n", patched, binaryPath)

	if printDigest {
		fmt.Printf("%s  %s\n", binhash.HashBytes(data), binaryPath)
	}
	return nil
}
