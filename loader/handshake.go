// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// CallbackSocketName is the fixed child name of the controller's
// callback socket inside the data directory.
const CallbackSocketName = "callback"

// DefaultAgentFilename is the fixed child name of the agent module
// inside the data directory.
const DefaultAgentFilename = "tether-agent.so"

// Options configures a handshake Client. The zero value is the
// production configuration: the patched data directory, the host
// process's own pid, a discarding logger, and the plugin-backed module
// loader.
type Options struct {
	// DataDir overrides the patched placeholder. Empty means use
	// DataDir() from the patched binary.
	DataDir string

	// PID is the process identifier announced to the controller.
	// Zero means os.Getpid().
	PID int

	// AgentFilename is the agent module's filename inside the data
	// directory. Empty means DefaultAgentFilename.
	AgentFilename string

	// Logger receives structured diagnostics. The handshake never
	// surfaces failures to the host process; this is the only window
	// into it. Nil means discard.
	Logger *slog.Logger

	// Modules loads the agent module. Nil means the Go plugin runtime.
	Modules ModuleLoader
}

// Client performs the bootstrap handshake: exactly one round trip per
// process lifetime, at process start.
type Client struct {
	dataDir       string
	pid           int
	agentFilename string
	logger        *slog.Logger
	modules       ModuleLoader
}

// NewClient builds a Client, filling zero-valued Options with
// production defaults.
func NewClient(options Options) *Client {
	client := &Client{
		dataDir:       options.DataDir,
		pid:           options.PID,
		agentFilename: options.AgentFilename,
		logger:        options.Logger,
		modules:       options.Modules,
	}
	if client.dataDir == "" {
		client.dataDir = DataDir()
	}
	if client.pid == 0 {
		client.pid = os.Getpid()
	}
	if client.agentFilename == "" {
		client.agentFilename = DefaultAgentFilename
	}
	if client.logger == nil {
		client.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if client.modules == nil {
		client.modules = pluginLoader{}
	}
	return client
}

// Run performs the announce/address/resume exchange with the controller
// listening on <data_dir>/callback:
//
//  1. Connect to the callback socket. No retry, no timeout: either the
//     controller is there or the whole sequence aborts.
//  2. Announce the host pid as a decimal value.
//  3. Receive the rendezvous address. A failed or empty receive aborts
//     before anything is dispatched.
//  4. Dispatch the agent bootstrap on a detached goroutine, handing it
//     the address. The bootstrap is never rejoined.
//  5. Block for the resume token. Its arrival is a one-shot barrier:
//     the controller performs its own setup (such as thread
//     manipulation) between dispatch and resume, and the host's
//     startup thread must not continue until that window closes. A
//     failure here is tolerated — the agent is already dispatched, and
//     the host must not be held hostage by a lost barrier.
//
// Run never returns an error and never panics: this code runs ambient
// inside a process it does not own, and a broken handshake must leave
// the host's startup path undisturbed. The socket is closed on every
// path out of this function.
func (client *Client) Run() {
	if client.dataDir == "" {
		client.logger.Error("data directory not configured, placeholder unpatched")
		return
	}
	socketPath := filepath.Join(client.dataDir, CallbackSocketName)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		client.logger.Error("connecting to control channel", "path", socketPath, "error", err)
		return
	}
	defer conn.Close()
	client.logger.Debug("connected", "path", socketPath)

	if err := WriteValuef(conn, "%d", client.pid); err != nil {
		client.logger.Error("announcing pid", "pid", client.pid, "error", err)
		return
	}
	client.logger.Debug("announced", "pid", client.pid)

	address, err := ReadValue(conn)
	if err != nil {
		client.logger.Error("receiving rendezvous address", "error", err)
		return
	}
	if len(address) == 0 {
		client.logger.Error("receiving rendezvous address", "error", ErrEmptyValue)
		return
	}
	client.logger.Debug("address received")

	go client.bootstrapAgent(string(address))
	client.logger.Debug("agent dispatched")

	if _, err := ReadValue(conn); err != nil {
		client.logger.Warn("resume token not received", "error", err)
		return
	}
	client.logger.Debug("resume received")
}

var initializeOnce sync.Once

// Initialize runs the bootstrap handshake with production defaults,
// exactly once per process. The injection mechanism calls it as soon as
// the loader library is mapped, before the host's own initialization;
// repeat calls are no-ops. It blocks until the controller sends the
// resume token (or the handshake aborts), then returns control to the
// host's normal startup path.
func Initialize() {
	InitializeWithOptions(Options{})
}

// InitializeWithOptions is Initialize with explicit options, sharing
// the same once-per-process guard. Debug deployments use it to inject
// a diagnostic logger; embedders use it to set DataDir without binary
// patching.
func InitializeWithOptions(options Options) {
	initializeOnce.Do(func() {
		NewClient(options).Run()
	})
}
