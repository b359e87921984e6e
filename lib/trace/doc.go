// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace provides the debug-only diagnostic side channel for
// the Tether loader.
//
// Production loaders are fully silent: the loader's default logger
// discards everything, and no failure is ever surfaced to the host
// process. Debug deployments pass the loader a slog.Logger built on
// [Handler], which appends one deterministic-CBOR event per record to
// a file. The stream has no outer framing; decode it incrementally
// with lib/codec, or render it with codec.Diagnose.
package trace
