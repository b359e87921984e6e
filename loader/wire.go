// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"fmt"
	"io"
)

// MaxValueLength is the largest value the control channel can carry.
// The wire format is a one-byte length prefix followed by that many raw
// bytes, so 255 is a hard protocol limit, not a tunable.
const MaxValueLength = 255

// writeFull writes all of data to w, looping on short writes from
// offset 0 until every byte is transmitted. Any write error aborts
// immediately; no partial state is exposed to the caller.
func writeFull(w io.Writer, data []byte) error {
	for offset := 0; offset < len(data); {
		n, err := w.Write(data[offset:])
		offset += n
		if err != nil {
			return fmt.Errorf("wrote %d of %d bytes: %w", offset, len(data), err)
		}
	}
	return nil
}

// readFull fills buf completely from r. A stream that ends before buf
// is full is reported as ErrPeerClosed: orderly closure with
// insufficient data is a failure, and the partially filled buffer must
// not be handed off. Interrupted reads are retried by the runtime
// underneath; callers only ever see a full buffer or an error.
func readFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("read %d of %d bytes: %w", n, len(buf), ErrPeerClosed)
	}
	return fmt.Errorf("read %d of %d bytes: %w", n, len(buf), err)
}

// WriteValue writes one length-prefixed value to w. The frame is
// assembled in a single buffer so the peer never observes a length
// prefix without its payload in the same write. Values longer than
// MaxValueLength are a caller contract violation and rejected before
// anything is written.
func WriteValue(w io.Writer, value []byte) error {
	if len(value) > MaxValueLength {
		return fmt.Errorf("%d-byte value: %w", len(value), ErrValueTooLong)
	}
	frame := make([]byte, 1+len(value))
	frame[0] = byte(len(value))
	copy(frame[1:], value)
	return writeFull(w, frame)
}

// WriteValuef renders a formatted value and writes it with WriteValue.
// The handshake uses this to announce the host pid as a decimal string.
func WriteValuef(w io.Writer, format string, args ...any) error {
	return WriteValue(w, fmt.Appendf(nil, format, args...))
}

// ReadValue reads one length-prefixed value from r. The returned slice
// is exactly the announced length; a zero-length value yields an empty
// non-nil slice (whether empty is acceptable is the caller's decision).
// On any transfer failure the result is nil and nothing is handed off.
func ReadValue(r io.Reader) ([]byte, error) {
	var length [1]byte
	if err := readFull(r, length[:]); err != nil {
		return nil, fmt.Errorf("reading value length: %w", err)
	}
	value := make([]byte, length[0])
	if err := readFull(r, value); err != nil {
		return nil, fmt.Errorf("reading %d-byte value: %w", length[0], err)
	}
	return value, nil
}
