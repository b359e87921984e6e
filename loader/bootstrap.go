// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"path/filepath"
)

// bootstrapAgent loads the agent module and hands it the rendezvous
// address. It runs on its own detached goroutine: the handshake client
// dispatches it and never rejoins it, so the controller's setup window
// and the module load proceed in parallel.
//
// Load failure is a runtime condition: logged, the address dropped, the
// goroutine exits, the host process continues unharmed. A module
// missing its entry point is different — that is a broken release
// slipping past the build pipeline's validation, and it trips the
// assertion in resolveAndRun. The recover here confines that assertion
// to this goroutine; nothing may crash the host process.
func (client *Client) bootstrapAgent(rendezvousAddress string) {
	defer func() {
		if v := recover(); v != nil {
			client.logger.Error("agent bootstrap assertion", "panic", v)
		}
	}()

	modulePath := filepath.Join(client.dataDir, client.agentFilename)
	module, err := client.modules.Load(modulePath)
	if err != nil {
		client.logger.Error("loading agent module", "path", modulePath, "error", err)
		return
	}
	defer module.Close()

	client.resolveAndRun(module, modulePath, rendezvousAddress)
}

// resolveAndRun resolves the module's entry point and invokes it with
// the rendezvous address. The entry point is expected to start the
// agent's own event loop and return only on detachment; after it
// returns, the deferred Close in bootstrapAgent releases the module.
func (client *Client) resolveAndRun(module Module, modulePath, rendezvousAddress string) {
	entry, err := module.AgentMain()
	if err != nil {
		panic(fmt.Sprintf("agent module %s: %v", modulePath, err))
	}
	client.logger.Info("agent module loaded", "path", modulePath)

	entry(rendezvousAddress, nil, 0)
	client.logger.Info("agent entry point returned", "path", modulePath)
}
