// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

// tether-agent-mock is a minimal agent module: the reference
// implementation of the entry contract the loader's bootstrap expects.
// Build it with:
//
//	go build -buildmode=plugin -o tether-agent.so ./cmd/tether-agent-mock
//
// and deploy it into a data directory as tether-agent.so. The mock
// treats the rendezvous address as a unix socket path (with an
// optional pipe:// prefix), connects to it, and announces readiness
// with one length-prefixed value. A real agent establishes its own
// transport session here and runs its event loop until detached.
package main

import (
	"fmt"
	"net"
	"os"
	"strings"
	"unsafe"

	"github.com/tether-foundation/tether/loader"
)

// AgentMain is resolved and invoked by the loader's bootstrap thread.
// The reserved pointer and identifier are extension points, always nil
// and zero today.
func AgentMain(rendezvousAddress string, reserved unsafe.Pointer, reservedID uint) {
	if err := announce(rendezvousAddress); err != nil {
		// The loader stays silent on agent failures; the mock is a
		// development tool, so stderr is fine here.
		fmt.Fprintf(os.Stderr, "tether-agent-mock: %v\n", err)
	}
}

// announce dials the rendezvous channel and reports this process.
func announce(rendezvousAddress string) error {
	socketPath := strings.TrimPrefix(rendezvousAddress, "pipe://")
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("dialing rendezvous channel: %w", err)
	}
	defer conn.Close()

	if err := loader.WriteValuef(conn, "ready %d", os.Getpid()); err != nil {
		return fmt.Errorf("announcing readiness: %w", err)
	}
	return nil
}

func main() {}
