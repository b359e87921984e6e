// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestIsExpectedCloseError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.EOF, true},
		{net.ErrClosed, true},
		{fmt.Errorf("reading value: %w", io.EOF), true},
		{syscall.EPIPE, true},
		{syscall.ECONNRESET, true},
		{&net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{syscall.ECONNREFUSED, false},
		{errors.New("value exceeds 255 bytes"), false},
	}

	for _, c := range cases {
		if got := IsExpectedCloseError(c.err); got != c.want {
			t.Errorf("IsExpectedCloseError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
