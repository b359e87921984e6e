// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tether-foundation/tether/lib/binhash"
	"github.com/tether-foundation/tether/lib/codec"
	"github.com/tether-foundation/tether/lib/config"
	"github.com/tether-foundation/tether/loader"
)

// Session outcomes recorded per handshake.
const (
	// outcomeResumed: full exchange completed, resume token delivered.
	outcomeResumed = "resumed"

	// outcomeRefused: the controller closed the channel without
	// sending a rendezvous address (peer mismatch, failed module
	// digest, malformed announce). The loader aborts silently and no
	// agent is dispatched in the target.
	outcomeRefused = "refused"

	// outcomeFailed: a transport error interrupted the exchange.
	outcomeFailed = "failed"

	// outcomeUnconfirmed: the address went out but the resume token
	// could not be delivered. The target has dispatched its agent; it
	// just never saw the barrier.
	outcomeUnconfirmed = "resume-unconfirmed"
)

// sessionRecord is the CBOR record appended to the session log for
// each handshake.
type sessionRecord struct {
	Time         time.Time `cbor:"time"`
	AnnouncedPID int       `cbor:"announced_pid"`
	PeerPID      int       `cbor:"peer_pid,omitempty"`
	Address      string    `cbor:"address,omitempty"`
	Outcome      string    `cbor:"outcome"`
	Detail       string    `cbor:"detail,omitempty"`
}

// controller serves handshake sessions on the callback socket.
type controller struct {
	config *config.Config
	logger *slog.Logger

	recordMu  sync.Mutex
	recordLog *os.File // nil when no session log is configured
}

// handleSession runs the controller side of one bootstrap handshake.
// The connection is closed before returning; for refused sessions that
// closure is itself the refusal, since the loader treats a dropped
// address receive as an abort.
func (c *controller) handleSession(conn net.Conn) sessionRecord {
	defer conn.Close()
	record := sessionRecord{Time: time.Now().UTC()}
	defer c.appendRecord(&record)

	announced, err := loader.ReadValue(conn)
	if err != nil {
		record.Outcome = outcomeFailed
		record.Detail = fmt.Sprintf("reading announce: %v", err)
		return record
	}
	pid, err := strconv.Atoi(string(announced))
	if err != nil || pid <= 0 {
		record.Outcome = outcomeRefused
		record.Detail = fmt.Sprintf("malformed pid announce %q", announced)
		return record
	}
	record.AnnouncedPID = pid
	c.logger.Info("target announced", "pid", pid)

	if c.config.VerifyPeerPID {
		peer, err := peerPID(conn)
		if err != nil {
			record.Outcome = outcomeRefused
			record.Detail = fmt.Sprintf("peer credentials: %v", err)
			return record
		}
		record.PeerPID = peer
		if peer != pid {
			record.Outcome = outcomeRefused
			record.Detail = fmt.Sprintf("announced pid %d but socket peer is %d", pid, peer)
			c.logger.Warn("refusing session", "announced", pid, "peer", peer)
			return record
		}
	}

	if c.config.AgentModuleDigest != "" {
		if err := c.verifyAgentModule(); err != nil {
			record.Outcome = outcomeRefused
			record.Detail = err.Error()
			c.logger.Warn("refusing session", "error", err)
			return record
		}
	}

	if err := loader.WriteValue(conn, []byte(c.config.RendezvousAddress)); err != nil {
		record.Outcome = outcomeFailed
		record.Detail = fmt.Sprintf("sending rendezvous address: %v", err)
		return record
	}
	record.Address = c.config.RendezvousAddress
	c.logger.Info("rendezvous address sent", "pid", pid)

	// The settle window: a production controller manipulates the
	// target's threads here, after the agent load is dispatched but
	// before the startup thread is released.
	if delay := time.Duration(c.config.ResumeDelay); delay > 0 {
		time.Sleep(delay)
	}

	if err := loader.WriteValue(conn, []byte(c.config.ResumeToken)); err != nil {
		record.Outcome = outcomeUnconfirmed
		record.Detail = fmt.Sprintf("sending resume token: %v", err)
		return record
	}
	record.Outcome = outcomeResumed
	c.logger.Info("target resumed", "pid", pid)
	return record
}

// verifyAgentModule compares the deployed module's digest against the
// configured expectation. Handing a target an address while a corrupt
// or stale module sits in the data directory would dispatch a broken
// agent into a live process.
func (c *controller) verifyAgentModule() error {
	expected, err := binhash.ParseDigest(c.config.AgentModuleDigest)
	if err != nil {
		return fmt.Errorf("configured agent module digest: %w", err)
	}
	actual, err := binhash.HashFile(c.config.AgentModulePath)
	if err != nil {
		return fmt.Errorf("hashing deployed agent module: %w", err)
	}
	if actual != expected {
		return fmt.Errorf("agent module %s digest %s does not match expected %s",
			c.config.AgentModulePath, actual, expected)
	}
	return nil
}

// appendRecord writes one CBOR session record to the session log.
func (c *controller) appendRecord(record *sessionRecord) {
	if c.recordLog == nil {
		return
	}
	c.recordMu.Lock()
	defer c.recordMu.Unlock()
	if err := codec.NewEncoder(c.recordLog).Encode(record); err != nil {
		c.logger.Error("writing session record", "error", err)
	}
}

// peerPID returns the pid of the process on the other end of a unix
// socket, from SO_PEERCRED. The kernel fills the credentials at
// connect time, so a target cannot spoof them the way it could spoof
// the announced value.
func peerPID(conn net.Conn) (int, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return 0, fmt.Errorf("connection is %T, not a unix socket", conn)
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("accessing raw connection: %w", err)
	}

	var cred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return 0, fmt.Errorf("reading peer credentials: %w", err)
	}
	if credErr != nil {
		return 0, fmt.Errorf("SO_PEERCRED: %w", credErr)
	}
	return int(cred.Pid), nil
}
