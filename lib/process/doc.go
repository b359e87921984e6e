// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Tether's
// tooling binaries (the controller mock and the patch tool). It
// centralizes the one legitimate raw-I/O pattern that exists before
// the structured logger: fatal error reporting to stderr from main().
//
// The loader library itself never uses this package — it runs inside a
// process it does not own and must never exit it.
package process
