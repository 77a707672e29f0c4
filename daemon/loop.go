// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fader-audio/fader/protocol"
)

// State is the event loop lifecycle phase.
type State int

const (
	// StateInitializing covers socket creation through listen.
	StateInitializing State = iota
	// StateRunning is the normal poll/accept/read/write cycle.
	StateRunning
	// StateDraining stops accepting and flushes queued output,
	// bounded by Config.DrainTimeout.
	StateDraining
	// StateStopped is terminal; the listener is released.
	StateStopped
)

// Config holds the event loop parameters. SocketPath is required; the
// rest default via applyDefaults. The concrete bounds are deliberate
// configuration constants, not emergent behavior.
type Config struct {
	// SocketPath is the Unix socket address: a filesystem path, or an
	// abstract-namespace name when prefixed with "@" (Linux only; no
	// filesystem presence, kernel-cleaned on last close).
	SocketPath string

	// MaxClients caps concurrent connections. An accept beyond the
	// cap is refused (closed immediately), never queued and never a
	// crash. Default 64.
	MaxClients int

	// Backlog is the listen(2) queue depth. Default 128.
	Backlog int

	// PollTimeout bounds every readiness wait, which also bounds
	// shutdown latency and housekeeping starvation on an idle socket.
	// Default 500ms.
	PollTimeout time.Duration

	// DrainTimeout bounds the best-effort flush of queued output
	// during shutdown. Default 1s.
	DrainTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxClients <= 0 {
		c.MaxClients = 64
	}
	if c.Backlog <= 0 {
		c.Backlog = 128
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 500 * time.Millisecond
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = time.Second
	}
}

// readChunkSize is the per-cycle read buffer. Allocated once per
// server and reused every cycle; bytes are copied out into the
// per-connection buffer immediately.
const readChunkSize = 4096

// Server drives the event loop. One Server per process; the owning
// structure is passed explicitly — there is no package-level daemon
// state.
type Server struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	subs  *Subscriptions
	table *connTable
	state State

	readChunk []byte
	ready     chan struct{}
}

// New creates a server. The handler receives every decoded message;
// the logger receives operational events.
func New(cfg Config, handler Handler, logger *slog.Logger) *Server {
	cfg.applyDefaults()
	return &Server{
		cfg:       cfg,
		handler:   handler,
		logger:    logger,
		subs:      NewSubscriptions(),
		readChunk: make([]byte, readChunkSize),
		ready:     make(chan struct{}),
	}
}

// Ready is closed once the server is listening. Intended for tests
// and for callers that start Run in a goroutine.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Run executes the full lifecycle: Initializing → Running → Draining
// → Stopped. It returns when ctx is cancelled (observed within one
// poll timeout) or on a fatal startup error. Bind/listen failure is
// fatal: the socket address is a deployment precondition, not a
// runtime condition to retry.
func (s *Server) Run(ctx context.Context) error {
	if err := s.initialize(); err != nil {
		s.state = StateStopped
		return err
	}
	s.state = StateRunning
	close(s.ready)
	s.logger.Info("listening",
		"socket", s.cfg.SocketPath,
		"max_clients", s.cfg.MaxClients,
		"backlog", s.cfg.Backlog,
	)

	for s.state == StateRunning {
		if ctx.Err() != nil {
			break
		}
		if err := s.step(); err != nil {
			s.drain()
			s.stop()
			return err
		}
	}

	s.drain()
	s.stop()
	return nil
}

// initialize creates the non-blocking listener and installs it as
// poll slot 0. A stale socket file left by an unclean previous exit
// is removed before binding; a live listener at the same path will
// still fail the bind, which is the correct refusal.
func (s *Server) initialize() error {
	if s.cfg.SocketPath == "" {
		return fmt.Errorf("daemon: SocketPath is required")
	}

	if !s.abstractSocket() {
		if err := os.MkdirAll(filepath.Dir(s.cfg.SocketPath), 0o755); err != nil {
			return fmt.Errorf("daemon: creating socket directory: %w", err)
		}
		if err := os.Remove(s.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("daemon: removing stale socket %s: %w", s.cfg.SocketPath, err)
		}
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("daemon: creating socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: s.cfg.SocketPath}); err != nil {
		unix.Close(fd)
		return fmt.Errorf("daemon: binding %s: %w", s.cfg.SocketPath, err)
	}
	if err := unix.Listen(fd, s.cfg.Backlog); err != nil {
		unix.Close(fd)
		return fmt.Errorf("daemon: listening on %s: %w", s.cfg.SocketPath, err)
	}

	s.table = newConnTable(fd, s.cfg.MaxClients)
	return nil
}

// abstractSocket reports whether the configured address lives in the
// abstract namespace ("@name") rather than on the filesystem.
func (s *Server) abstractSocket() bool {
	return strings.HasPrefix(s.cfg.SocketPath, "@")
}

// step runs one poll cycle: wait, accept, read+dispatch, housekeep,
// flush, reap. Returns an error only for an unrecoverable poll
// failure; every per-connection fault is absorbed.
func (s *Server) step() error {
	entries := s.table.pollEntries()
	ready, err := unix.Poll(entries, int(s.cfg.PollTimeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("daemon: poll: %w", err)
	}

	// Snapshot the client list before accepting: entry i+1 maps to
	// clients[i], and accepts this cycle must not disturb that
	// mapping.
	clients := s.table.conns

	if ready > 0 {
		if entries[0].Revents&unix.POLLIN != 0 {
			s.acceptReady()
		}

		// Read phase. POLLHUP and POLLERR take the read path too: the
		// read reports the zero-length close or the underlying error,
		// which routes the connection to pending removal.
		for i, c := range clients {
			if c.closing {
				continue
			}
			if entries[i+1].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				s.readReady(c)
			}
		}
	}

	s.queueOutbound(s.handler.Housekeep(s.subs))

	// Write phase: every connection with pending output gets a flush
	// attempt, including queues filled this same cycle — a reply to a
	// freshly read request must not wait an extra poll cycle.
	for _, c := range s.table.conns {
		if !c.closing && len(c.writeQueue) > 0 {
			s.flushConn(c)
		}
	}

	s.table.reapPending(s.releaseConn)
	return nil
}

// acceptReady drains the accept queue. A failed accept is logged and
// skipped — one bad handshake must not halt the loop.
func (s *Server) acceptReady() {
	for {
		fd, _, err := unix.Accept4(s.table.listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			if err == unix.EINTR {
				continue
			}
			s.logger.Error("accept failed", "error", err)
			return
		}

		c, err := s.table.add(fd)
		if errors.Is(err, ErrTableFull) {
			s.logger.Warn("refusing connection, table full", "max_clients", s.cfg.MaxClients)
			unix.Close(fd)
			continue
		}

		s.logger.Debug("connection accepted", "conn", c.id)
		s.handler.ConnectionAdded(c.id)
	}
}

// readReady moves available bytes into the connection's buffer, then
// decodes and dispatches every complete message in arrival order.
func (s *Server) readReady(c *conn) {
	for {
		n, err := unix.Read(c.fd, s.readChunk)
		if n > 0 {
			c.readBuf = append(c.readBuf, s.readChunk[:n]...)
			if n < len(s.readChunk) {
				break
			}
			continue
		}
		if err == unix.EAGAIN {
			break
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// I/O fault: same reap path as a clean close, but
			// distinguished in diagnostics.
			s.logger.Warn("read failed", "conn", c.id, "error", err)
			s.table.scheduleRemoval(c.id)
			return
		}
		// Zero-length read: the peer closed. Normal teardown, not a
		// failure.
		s.logger.Debug("peer closed", "conn", c.id)
		s.table.scheduleRemoval(c.id)
		return
	}

	for len(c.readBuf) > 0 {
		msg, consumed, err := protocol.Decode(c.readBuf)
		if errors.Is(err, protocol.ErrIncomplete) {
			if len(c.readBuf) > protocol.MaxMessageSize {
				s.logger.Warn("message size limit exceeded",
					"conn", c.id, "buffered", len(c.readBuf))
				s.table.scheduleRemoval(c.id)
			}
			return
		}
		if err != nil {
			// Protocol violation: fatal to this connection only.
			s.logger.Warn("decode failed", "conn", c.id, "error", err)
			s.table.scheduleRemoval(c.id)
			return
		}

		c.readBuf = c.readBuf[consumed:]
		if len(c.readBuf) == 0 {
			c.readBuf = nil
		}
		s.queueOutbound(s.handler.HandleMessage(c.id, msg, s.subs))
	}
}

// queueOutbound encodes handler output onto the destinations' write
// queues. A destination that has been removed (or is parked for
// removal) is dropped silently — its handle is invalid by contract.
func (s *Server) queueOutbound(outbound []Outbound) {
	for _, out := range outbound {
		target := s.table.get(out.To)
		if target == nil || target.closing {
			s.logger.Debug("dropping message for gone connection", "conn", out.To)
			continue
		}
		data, err := protocol.Encode(out.Msg)
		if err != nil {
			s.logger.Error("encoding outbound message", "kind", out.Msg.Kind, "error", err)
			continue
		}
		target.writeQueue = append(target.writeQueue, data)
	}
}

// flushConn writes queued output until the queue empties or the
// socket stops accepting bytes. A partial write retains the remainder
// at the head of the queue for the next readiness signal — no
// busy-waiting. A write fault routes the connection to pending
// removal: writing to an already-gone peer surfaces here as EPIPE or
// ECONNRESET (the Go runtime absorbs SIGPIPE on sockets), an ordinary
// error, never a process kill.
func (s *Server) flushConn(c *conn) {
	for len(c.writeQueue) > 0 {
		data := c.writeQueue[0]
		n, err := unix.Write(c.fd, data)
		if err == unix.EAGAIN {
			return
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			if err == unix.EPIPE || err == unix.ECONNRESET {
				s.logger.Debug("peer gone during write", "conn", c.id, "error", err)
			} else {
				s.logger.Warn("write failed", "conn", c.id, "error", err)
			}
			s.table.scheduleRemoval(c.id)
			return
		}
		if n < len(data) {
			c.writeQueue[0] = data[n:]
			return
		}
		c.writeQueue = c.writeQueue[1:]
	}
	c.writeQueue = nil
}

// releaseConn finishes a removal: subscription cleanup, handler
// notification, descriptor close. Runs exactly once per connection.
func (s *Server) releaseConn(c *conn) {
	s.subs.UnsubscribeAll(c.id)
	s.handler.ConnectionRemoved(c.id)
	unix.Close(c.fd)
	s.logger.Debug("connection removed", "conn", c.id)
}

// drain stops accepting and makes a bounded best-effort flush of
// already-queued output before closing every connection.
func (s *Server) drain() {
	if s.table == nil {
		return
	}
	s.state = StateDraining
	s.logger.Info("draining", "connections", len(s.table.conns))

	deadline := time.Now().Add(s.cfg.DrainTimeout)
	for time.Now().Before(deadline) {
		pending := s.pendingWriters()
		if len(pending) == 0 {
			break
		}
		entries := make([]unix.PollFd, len(pending))
		for i, c := range pending {
			entries[i] = unix.PollFd{Fd: int32(c.fd), Events: unix.POLLOUT}
		}
		ready, err := unix.Poll(entries, 50)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			break
		}
		if ready == 0 {
			continue
		}
		for i, c := range pending {
			if entries[i].Revents&unix.POLLOUT != 0 {
				s.flushConn(c)
			}
		}
		s.table.reapPending(s.releaseConn)
	}

	for i := len(s.table.conns) - 1; i >= 0; i-- {
		s.table.scheduleRemoval(s.table.conns[i].id)
	}
	s.table.reapPending(s.releaseConn)
}

// pendingWriters lists live connections that still have queued
// output.
func (s *Server) pendingWriters() []*conn {
	var pending []*conn
	for _, c := range s.table.conns {
		if !c.closing && len(c.writeQueue) > 0 {
			pending = append(pending, c)
		}
	}
	return pending
}

// stop releases the listener and, for filesystem sockets, unlinks the
// socket file. Terminal.
func (s *Server) stop() {
	if s.table != nil {
		unix.Close(s.table.listenFD)
	}
	if !s.abstractSocket() {
		os.Remove(s.cfg.SocketPath)
	}
	s.state = StateStopped
	s.logger.Info("stopped")
}
