// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Tether's
// controller tooling.
//
// Configuration is loaded from a single file specified by either the
// TETHER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The loader library deliberately consumes none of this: its only
// input is the data directory patched into the binary (or set through
// loader.SetDataDir), per its no-environment, no-flags contract.
package config
