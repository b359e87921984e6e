// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tether-foundation/tether/lib/config"
	"github.com/tether-foundation/tether/lib/netutil"
	"github.com/tether-foundation/tether/lib/process"
	"github.com/tether-foundation/tether/lib/version"
	"github.com/tether-foundation/tether/loader"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		socketDir   string
		address     string
		resumeToken string
		resumeDelay time.Duration
		sessionLog  string
		once        bool
		verbose     bool
	)

	flagSet := pflag.NewFlagSet("tether-controller-mock", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: TETHER_CONFIG)")
	flagSet.StringVar(&socketDir, "socket-dir", "", "data directory holding the callback socket and agent module")
	flagSet.StringVar(&address, "address", "", "rendezvous address handed to each target")
	flagSet.StringVar(&resumeToken, "resume-token", "", "resume token value (content is ignored by targets)")
	flagSet.DurationVar(&resumeDelay, "resume-delay", 0, "settle window between address and resume token")
	flagSet.StringVar(&sessionLog, "session-log", "", "append CBOR session records to this file")
	flagSet.BoolVar(&once, "once", false, "serve a single session and exit")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// Handle --version before flag parsing to match other Tether binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("tether-controller-mock")
		return nil
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath, address)
	if err != nil {
		return err
	}
	// Flags override file configuration.
	if socketDir != "" {
		cfg.SocketDir = socketDir
	}
	if address != "" {
		cfg.RendezvousAddress = address
	}
	if resumeToken != "" {
		cfg.ResumeToken = resumeToken
	}
	if resumeDelay > 0 {
		cfg.ResumeDelay = config.Duration(resumeDelay)
	}
	if sessionLog != "" {
		cfg.SessionLog = sessionLog
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return serve(cfg, logger, once)
}

// loadConfig resolves the configuration source: an explicit --config
// path, the TETHER_CONFIG environment variable, or pure-flag operation
// when --address is given.
func loadConfig(configPath, addressFlag string) (*config.Config, error) {
	switch {
	case configPath != "":
		return config.LoadFile(configPath)
	case os.Getenv("TETHER_CONFIG") != "":
		return config.Load()
	case addressFlag != "":
		cfg := config.Default()
		cfg.RendezvousAddress = addressFlag
		return cfg, nil
	default:
		return nil, fmt.Errorf("no configuration: pass --config, set TETHER_CONFIG, or give --address")
	}
}

// serve accepts handshake connections until interrupted (or after one
// session with once). Sessions are served sequentially: each target's
// handshake holds its startup thread, and the mock mirrors a real
// controller's one-target-at-a-time attach flow.
func serve(cfg *config.Config, logger *slog.Logger, once bool) error {
	if err := os.MkdirAll(cfg.SocketDir, 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	socketPath := filepath.Join(cfg.SocketDir, loader.CallbackSocketName)

	// A previous run's socket file would make Listen fail.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket: %w", err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on callback socket: %w", err)
	}
	defer listener.Close()
	logger.Info("listening", "path", socketPath, "address", cfg.RendezvousAddress)

	ctrl := &controller{config: cfg, logger: logger}
	if cfg.SessionLog != "" {
		recordLog, err := os.OpenFile(cfg.SessionLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening session log: %w", err)
		}
		defer recordLog.Close()
		ctrl.recordLog = recordLog
	}

	// Close the listener on SIGINT/SIGTERM to unblock Accept.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		<-signals
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if netutil.IsExpectedCloseError(err) {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		record := ctrl.handleSession(conn)
		logger.Info("session finished", "pid", record.AnnouncedPID, "outcome", record.Outcome)
		if once {
			return nil
		}
	}
}
