// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"plugin"
	"unsafe"
)

// EntrySymbol is the exported symbol every agent module must provide.
// The build pipeline validates its presence before deployment; a
// deployed module without it is a broken release.
const EntrySymbol = "AgentMain"

// AgentMainFunc is the signature of the agent module's entry point.
// The rendezvous address is the opaque location string received from
// the controller; the agent uses it to establish its own channel. The
// reserved pointer and identifier are extension points, always nil and
// zero in this core.
type AgentMainFunc func(rendezvousAddress string, reserved unsafe.Pointer, reservedID uint)

// ModuleLoader loads agent modules into the host process's address
// space. The production implementation wraps the Go plugin runtime;
// tests substitute recording fakes.
type ModuleLoader interface {
	// Load maps the module at path into the process. Symbols become
	// globally visible. Failure is a runtime condition (missing file,
	// incompatible build), not a contract violation.
	Load(path string) (Module, error)
}

// Module is a loaded agent module.
type Module interface {
	// AgentMain resolves the module's entry point. An error means the
	// EntrySymbol is absent or has the wrong signature — a contract
	// violation of the build pipeline, not a recoverable condition.
	AgentMain() (AgentMainFunc, error)

	// Close releases the module after its entry point has returned.
	Close() error
}

// pluginLoader is the production ModuleLoader backed by the Go plugin
// runtime, the in-process analog of dlopen with global symbol
// visibility.
type pluginLoader struct{}

func (pluginLoader) Load(path string) (Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening agent module: %w", err)
	}
	return pluginModule{plugin: p}, nil
}

// pluginModule adapts *plugin.Plugin to the Module interface.
type pluginModule struct {
	plugin *plugin.Plugin
}

func (m pluginModule) AgentMain() (AgentMainFunc, error) {
	symbol, err := m.plugin.Lookup(EntrySymbol)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", EntrySymbol, err)
	}
	entry, ok := symbol.(func(string, unsafe.Pointer, uint))
	if !ok {
		return nil, fmt.Errorf("%s has wrong type %T", EntrySymbol, symbol)
	}
	return AgentMainFunc(entry), nil
}

// Close is a no-op: the Go plugin runtime keeps a module mapped for the
// process lifetime and offers no unload. The agent's entry point runs
// its own event loop and returns only on detachment, so the mapping
// outliving the bootstrap thread is the expected shape anyway.
func (m pluginModule) Close() error {
	return nil
}
