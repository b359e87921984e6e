// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import "errors"

// ErrPeerClosed reports that the controller closed the control channel
// before a full frame was transferred. Distinguishes orderly peer
// closure from transport-level errors.
var ErrPeerClosed = errors.New("peer closed connection")

// ErrValueTooLong reports a caller contract violation: values on the
// control channel carry a one-byte length prefix and can never exceed
// 255 bytes.
var ErrValueTooLong = errors.New("value exceeds 255 bytes")

// ErrEmptyValue reports a protocol violation: the controller sent a
// zero-length value where the handshake requires content (the
// rendezvous address).
var ErrEmptyValue = errors.New("empty value")
