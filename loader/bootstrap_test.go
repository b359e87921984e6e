// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// bootstrapClient builds a Client wired to the given loader without
// running the handshake, so tests can drive bootstrapAgent directly.
func bootstrapClient(modules ModuleLoader) *Client {
	return NewClient(Options{
		DataDir: "/run/tether/test",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Modules: modules,
	})
}

func TestBootstrapInvokesEntryPoint(t *testing.T) {
	modules := newRecordingLoader()
	client := bootstrapClient(modules)

	// Synchronous call: the goroutine body, not the dispatch.
	client.bootstrapAgent("pipe://abc")

	record := awaitRecord(t, modules.records)
	if want := filepath.Join("/run/tether/test", DefaultAgentFilename); record.modulePath != want {
		t.Errorf("loaded %q, want %q", record.modulePath, want)
	}
	if record.rendezvousAddress != "pipe://abc" {
		t.Errorf("entry point received %q, want %q", record.rendezvousAddress, "pipe://abc")
	}
	if !modules.wasClosed() {
		t.Error("module was not released after the entry point returned")
	}
}

func TestBootstrapCustomAgentFilename(t *testing.T) {
	modules := newRecordingLoader()
	client := NewClient(Options{
		DataDir:       "/run/tether/test",
		AgentFilename: "custom-agent.so",
		Modules:       modules,
	})
	client.bootstrapAgent("pipe://abc")

	record := awaitRecord(t, modules.records)
	if want := filepath.Join("/run/tether/test", "custom-agent.so"); record.modulePath != want {
		t.Errorf("loaded %q, want %q", record.modulePath, want)
	}
}

// TestBootstrapLoadFailure: a missing or unloadable module is a runtime
// condition. The bootstrap gives up silently; nothing is invoked and
// nothing crashes.
func TestBootstrapLoadFailure(t *testing.T) {
	modules := newRecordingLoader()
	modules.loadErr = errors.New("no such file")
	client := bootstrapClient(modules)

	client.bootstrapAgent("pipe://abc")

	expectNoRecord(t, modules.records)
	if modules.wasClosed() {
		t.Error("Close called on a module that never loaded")
	}
}

// TestBootstrapMissingEntrySymbol: a deployed module without the entry
// symbol is a broken release. The assertion must end only the bootstrap
// goroutine; the calling (host) code keeps running.
func TestBootstrapMissingEntrySymbol(t *testing.T) {
	modules := newRecordingLoader()
	modules.entryErr = errors.New("symbol AgentMain not found")
	client := bootstrapClient(modules)

	// Must return normally: the panic is confined by the recover in
	// bootstrapAgent. A crash here fails the whole test process.
	client.bootstrapAgent("pipe://abc")

	expectNoRecord(t, modules.records)
	if !modules.wasClosed() {
		t.Error("module was not released during assertion unwind")
	}
}

// TestPluginLoaderMissingFile: the production loader reports a load
// failure for a nonexistent path instead of panicking.
func TestPluginLoaderMissingFile(t *testing.T) {
	_, err := pluginLoader{}.Load(filepath.Join(t.TempDir(), "absent.so"))
	if err == nil {
		t.Fatal("Load of nonexistent module succeeded")
	}
}
