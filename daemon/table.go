// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrTableFull reports that the connection table is at capacity. The
// caller refuses the incoming connection (closes it immediately);
// existing connections are unaffected.
var ErrTableFull = errors.New("daemon: connection table full")

// connTable is the registry of active connections plus the listening
// socket. Poll entry 0 is always the listener — it is installed at
// construction and never removed while the server runs. Client
// entries keep insertion order; entry i+1 in the poll set corresponds
// to conns[i].
type connTable struct {
	listenFD   int
	maxClients int

	nextID ConnID
	conns  []*conn
	byID   map[ConnID]*conn

	// pendingRemoval holds connections discovered dead during the
	// current poll cycle. Every entry is unsubscribed, removed from
	// the table, and has its descriptor released before the next
	// poll call.
	pendingRemoval []ConnID
}

func newConnTable(listenFD, maxClients int) *connTable {
	return &connTable{
		listenFD:   listenFD,
		maxClients: maxClients,
		byID:       make(map[ConnID]*conn),
	}
}

// add registers a freshly accepted descriptor and returns its
// connection. Returns ErrTableFull at capacity; the descriptor is not
// registered and remains the caller's to close.
func (t *connTable) add(fd int) (*conn, error) {
	if len(t.conns) >= t.maxClients {
		return nil, ErrTableFull
	}
	t.nextID++
	c := &conn{id: t.nextID, fd: fd}
	t.conns = append(t.conns, c)
	t.byID[c.id] = c
	return c, nil
}

// get returns the connection for id, or nil if it was removed (or
// never existed). Removed handles are permanently invalid.
func (t *connTable) get(id ConnID) *conn {
	return t.byID[id]
}

// scheduleRemoval parks a connection on the pending-removal list.
// Idempotent: a connection found dead twice in one cycle (read fault
// then write fault) is reaped exactly once.
func (t *connTable) scheduleRemoval(id ConnID) {
	c := t.byID[id]
	if c == nil || c.closing {
		return
	}
	c.closing = true
	t.pendingRemoval = append(t.pendingRemoval, id)
}

// reapPending removes every parked connection from the table and
// calls release for each. Traversal is in reverse index order — a
// load-bearing invariant, not a style choice: removing entry i never
// shifts the index of a not-yet-visited entry, so the in-progress
// iteration stays valid.
func (t *connTable) reapPending(release func(*conn)) {
	if len(t.pendingRemoval) == 0 {
		return
	}
	for i := len(t.conns) - 1; i >= 0; i-- {
		c := t.conns[i]
		if !c.closing {
			continue
		}
		t.conns = append(t.conns[:i], t.conns[i+1:]...)
		delete(t.byID, c.id)
		release(c)
	}
	t.pendingRemoval = t.pendingRemoval[:0]
}

// pollEntries builds the poll set for one cycle: the listener at slot
// 0 (accept readiness), then one entry per client. Clients always
// request read readiness; write readiness only when output is
// pending, so an idle connection never causes a spurious wakeup.
func (t *connTable) pollEntries() []unix.PollFd {
	entries := make([]unix.PollFd, 0, len(t.conns)+1)
	entries = append(entries, unix.PollFd{Fd: int32(t.listenFD), Events: unix.POLLIN})
	for _, c := range t.conns {
		events := int16(unix.POLLIN)
		if len(c.writeQueue) > 0 {
			events |= unix.POLLOUT
		}
		entries = append(entries, unix.PollFd{Fd: int32(c.fd), Events: events})
	}
	return entries
}
