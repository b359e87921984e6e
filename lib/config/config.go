// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tether-foundation/tether/lib/binhash"
)

// Config is the configuration for the Tether controller tooling. The
// loader library itself takes no configuration beyond its patched data
// directory; everything here belongs to the controller side of the
// handshake.
type Config struct {
	// SocketDir is the data directory: the controller listens on
	// <socket_dir>/callback, and the agent module is deployed next to
	// the socket.
	SocketDir string `yaml:"socket_dir"`

	// RendezvousAddress is the opaque location string handed to each
	// target process. The loader passes it untouched to the agent
	// module's entry point; its format is an agent/controller contract.
	RendezvousAddress string `yaml:"rendezvous_address"`

	// ResumeToken is the value sent as the resume barrier. The loader
	// discards its content; only the arrival matters.
	ResumeToken string `yaml:"resume_token"`

	// ResumeDelay is how long the controller holds the target's
	// startup thread between dispatching the agent load and sending
	// the resume token. A real controller uses this window for
	// invasive setup (thread freezing and thawing); the mock just
	// sleeps.
	ResumeDelay Duration `yaml:"resume_delay"`

	// VerifyPeerPID cross-checks the announced pid against the
	// connecting socket's SO_PEERCRED credentials and refuses the
	// session on mismatch.
	VerifyPeerPID bool `yaml:"verify_peer_pid"`

	// AgentModulePath, when set together with AgentModuleDigest,
	// makes the controller verify the deployed module's BLAKE3 digest
	// before handing out the rendezvous address. The loader assumes
	// the module was validated before deployment; this is where that
	// validation happens.
	AgentModulePath string `yaml:"agent_module_path"`

	// AgentModuleDigest is the expected hex BLAKE3 digest of the
	// deployed agent module, as printed by tether-patch.
	AgentModuleDigest string `yaml:"agent_module_digest"`

	// SessionLog, when set, appends one CBOR session record per
	// handshake to this file.
	SessionLog string `yaml:"session_log"`
}

// Duration wraps time.Duration with YAML decoding from strings like
// "250ms" or "2s".
type Duration time.Duration

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		SocketDir:     "/run/tether",
		ResumeToken:   "resume",
		VerifyPeerPID: true,
	}
}

// Load reads configuration from the file named by the TETHER_CONFIG
// environment variable. There are no fallbacks and no automatic file
// discovery: deterministic, auditable configuration with no hidden
// overrides.
func Load() (*Config, error) {
	path := os.Getenv("TETHER_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("TETHER_CONFIG environment variable not set")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the given path, applying it over
// Default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks invariants that yaml decoding cannot express.
func (c *Config) Validate() error {
	if c.SocketDir == "" {
		return fmt.Errorf("socket_dir must be set")
	}
	if c.RendezvousAddress == "" {
		return fmt.Errorf("rendezvous_address must be set")
	}
	if len(c.RendezvousAddress) > 255 {
		return fmt.Errorf("rendezvous_address is %d bytes, the wire limit is 255", len(c.RendezvousAddress))
	}
	if len(c.ResumeToken) > 255 {
		return fmt.Errorf("resume_token is %d bytes, the wire limit is 255", len(c.ResumeToken))
	}
	if c.AgentModuleDigest != "" {
		if c.AgentModulePath == "" {
			return fmt.Errorf("agent_module_digest set without agent_module_path")
		}
		if _, err := binhash.ParseDigest(c.AgentModuleDigest); err != nil {
			return fmt.Errorf("agent_module_digest: %w", err)
		}
	}
	return nil
}
