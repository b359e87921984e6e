// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
	"unsafe"
)

// loadRecord captures one bootstrap attempt observed by a fake loader.
type loadRecord struct {
	modulePath        string
	rendezvousAddress string
}

// recordingLoader is a ModuleLoader whose modules report their load
// path and entry-point invocation on a channel, so tests can observe
// the detached bootstrap goroutine.
type recordingLoader struct {
	records chan loadRecord

	loadErr  error // returned by Load when set
	entryErr error // returned by Module.AgentMain when set

	mu     sync.Mutex
	closed bool
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{records: make(chan loadRecord, 1)}
}

func (l *recordingLoader) Load(path string) (Module, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return &recordingModule{loader: l, path: path}, nil
}

func (l *recordingLoader) wasClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

type recordingModule struct {
	loader *recordingLoader
	path   string
}

func (m *recordingModule) AgentMain() (AgentMainFunc, error) {
	if m.loader.entryErr != nil {
		return nil, m.loader.entryErr
	}
	return func(address string, reserved unsafe.Pointer, reservedID uint) {
		m.loader.records <- loadRecord{modulePath: m.path, rendezvousAddress: address}
	}, nil
}

func (m *recordingModule) Close() error {
	m.loader.mu.Lock()
	defer m.loader.mu.Unlock()
	m.loader.closed = true
	return nil
}

// startController listens on the callback socket inside dir, accepts
// one connection, and runs script against it. The returned channel
// closes when the script finishes.
func startController(t *testing.T, dir string, script func(t *testing.T, conn net.Conn)) <-chan struct{} {
	t.Helper()
	listener, err := net.Listen("unix", filepath.Join(dir, CallbackSocketName))
	if err != nil {
		t.Fatalf("listening on callback socket: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := listener.Accept()
		if err != nil {
			t.Errorf("accepting handshake connection: %v", err)
			return
		}
		defer conn.Close()
		script(t, conn)
	}()
	return done
}

// expectValue reads one value from conn and fails the test on mismatch.
func expectValue(t *testing.T, conn net.Conn, want string) {
	t.Helper()
	got, err := ReadValue(conn)
	if err != nil {
		t.Errorf("reading value: %v", err)
		return
	}
	if string(got) != want {
		t.Errorf("received %q, want %q", got, want)
	}
}

// awaitRecord waits for the detached bootstrap goroutine to report.
func awaitRecord(t *testing.T, records <-chan loadRecord) loadRecord {
	t.Helper()
	select {
	case record := <-records:
		return record
	case <-time.After(5 * time.Second):
		t.Fatal("bootstrap never reported a load attempt")
		return loadRecord{}
	}
}

// expectNoRecord verifies that no bootstrap was dispatched. Run has
// already returned when this is called, and dispatch happens before
// Run's final receive, so a short grace window suffices.
func expectNoRecord(t *testing.T, records <-chan loadRecord) {
	t.Helper()
	select {
	case record := <-records:
		t.Fatalf("unexpected bootstrap dispatch: %+v", record)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandshakeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	controllerDone := startController(t, dir, func(t *testing.T, conn net.Conn) {
		expectValue(t, conn, "1234")
		if err := WriteValue(conn, []byte("pipe://abc")); err != nil {
			t.Errorf("sending rendezvous address: %v", err)
		}
		if err := WriteValue(conn, []byte("go")); err != nil {
			t.Errorf("sending resume token: %v", err)
		}
	})

	modules := newRecordingLoader()
	NewClient(Options{DataDir: dir, PID: 1234, Modules: modules}).Run()
	<-controllerDone

	record := awaitRecord(t, modules.records)
	if want := filepath.Join(dir, DefaultAgentFilename); record.modulePath != want {
		t.Errorf("loaded %q, want %q", record.modulePath, want)
	}
	if record.rendezvousAddress != "pipe://abc" {
		t.Errorf("entry point received address %q, want %q", record.rendezvousAddress, "pipe://abc")
	}
}

func TestHandshakeAnnouncesOwnPID(t *testing.T) {
	dir := t.TempDir()
	pids := make(chan string, 1)
	controllerDone := startController(t, dir, func(t *testing.T, conn net.Conn) {
		value, err := ReadValue(conn)
		if err != nil {
			t.Errorf("reading pid: %v", err)
			return
		}
		pids <- string(value)
	})

	modules := newRecordingLoader()
	client := NewClient(Options{DataDir: dir, Modules: modules})
	client.Run()
	<-controllerDone

	// Defaulted from os.Getpid; the controller must have seen exactly
	// the decimal rendering of the client's pid field.
	want := strconv.Itoa(client.pid)
	if got := <-pids; got != want {
		t.Errorf("controller received pid %q, want %q", got, want)
	}
	expectNoRecord(t, modules.records)
}

func TestHandshakeMissingSocket(t *testing.T) {
	modules := newRecordingLoader()
	started := time.Now()
	NewClient(Options{DataDir: t.TempDir(), Modules: modules}).Run()

	// Fail fast: no retry loop, no hang.
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Errorf("connect to missing socket took %v", elapsed)
	}
	expectNoRecord(t, modules.records)
}

func TestHandshakeUnpatchedDataDir(t *testing.T) {
	resetDataDir(t)
	copy(dataDir[:], dataDirPlaceholder)

	modules := newRecordingLoader()
	NewClient(Options{Modules: modules}).Run()
	expectNoRecord(t, modules.records)
}

func TestHandshakeControllerClosesBeforeAddress(t *testing.T) {
	dir := t.TempDir()
	controllerDone := startController(t, dir, func(t *testing.T, conn net.Conn) {
		expectValue(t, conn, "77")
	})

	modules := newRecordingLoader()
	NewClient(Options{DataDir: dir, PID: 77, Modules: modules}).Run()
	<-controllerDone
	expectNoRecord(t, modules.records)
}

func TestHandshakeEmptyAddress(t *testing.T) {
	dir := t.TempDir()
	controllerDone := startController(t, dir, func(t *testing.T, conn net.Conn) {
		expectValue(t, conn, "77")
		if err := WriteValue(conn, nil); err != nil {
			t.Errorf("sending empty address: %v", err)
		}
	})

	modules := newRecordingLoader()
	NewClient(Options{DataDir: dir, PID: 77, Modules: modules}).Run()
	<-controllerDone
	expectNoRecord(t, modules.records)
}

// TestHandshakeResumeFailureTolerated: the controller drops the
// connection after sending the address. The agent is already
// dispatched, so Run must still return normally.
func TestHandshakeResumeFailureTolerated(t *testing.T) {
	dir := t.TempDir()
	controllerDone := startController(t, dir, func(t *testing.T, conn net.Conn) {
		expectValue(t, conn, "77")
		if err := WriteValue(conn, []byte("pipe://xyz")); err != nil {
			t.Errorf("sending rendezvous address: %v", err)
		}
	})

	modules := newRecordingLoader()
	NewClient(Options{DataDir: dir, PID: 77, Modules: modules}).Run()
	<-controllerDone

	record := awaitRecord(t, modules.records)
	if record.rendezvousAddress != "pipe://xyz" {
		t.Errorf("entry point received address %q, want %q", record.rendezvousAddress, "pipe://xyz")
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	resetDataDir(t)
	copy(dataDir[:], dataDirPlaceholder)

	// With an unpatched placeholder both calls abort silently; the
	// point is that repeat initialization is a no-op, not a crash.
	Initialize()
	Initialize()
}
