// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

// ConnID is a stable handle for one accepted peer connection. IDs are
// never reused for the lifetime of a server, so a handler holding a
// stale ID after removal can at worst address nobody — never the
// wrong peer.
type ConnID uint64

// conn is the event loop's view of one accepted peer. It is owned
// exclusively by the connection table: created on accept, destroyed
// during pending-removal processing, and only ever reached through a
// ConnID lookup.
type conn struct {
	id ConnID
	fd int

	// readBuf accumulates received bytes until they form complete
	// messages. Consumed front-to-back, preserving per-connection
	// message order. Bounded by protocol.MaxMessageSize: a peer whose
	// buffered bytes exceed that without forming a message is in
	// protocol violation.
	readBuf []byte

	// writeQueue holds encoded outbound messages not yet (fully)
	// written. The head entry may be a partially written remainder.
	writeQueue [][]byte

	// closing marks the connection as parked on the pending-removal
	// list. A closing connection is skipped by every later phase of
	// the current cycle.
	closing bool
}
