// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes BLAKE3 content digests for deployed Tether
// artifacts.
//
// The loader assumes the agent module was validated before deployment;
// these digests are how that validation travels. tether-patch prints
// them at packaging time, and the controller compares the deployed
// module's digest against its configured expectation before handing a
// target process a rendezvous address.
package binhash
