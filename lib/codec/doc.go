// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Tether's standard CBOR encoding configuration.
//
// All CBOR in Tether flows through this package: the debug trace
// stream (lib/trace) and the controller's session records. Encoding
// uses Core Deterministic Encoding so identical logical data always
// produces identical bytes; decoding accepts standard CBOR and ignores
// unknown fields for forward compatibility.
package codec
