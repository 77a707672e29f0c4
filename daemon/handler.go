// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import "github.com/fader-audio/fader/protocol"

// Outbound is one message the handler wants delivered. To may be the
// origin connection (a reply) or any subscriber handle obtained from
// the registry (a notification). A handle that has since been removed
// is silently dropped — never misdelivered.
type Outbound struct {
	To  ConnID
	Msg protocol.Message
}

// Handler is the dispatch boundary between the event loop and the
// domain logic. The event set is closed and fixed at compile time:
// connection added, connection removed, message received, and the
// per-cycle housekeeping tick.
//
// Every method runs on the event loop thread, so implementations may
// mutate the registry and their own state without locking — and must
// not block.
type Handler interface {
	// ConnectionAdded runs after a peer is accepted into the table.
	ConnectionAdded(id ConnID)

	// ConnectionRemoved runs during pending-removal processing, after
	// the connection left the table and the registry. id is invalid
	// for any later Outbound.
	ConnectionRemoved(id ConnID)

	// HandleMessage processes one decoded message from origin and
	// returns the messages to send in response: to the origin, to
	// subscribers, or both. It may update the subscription registry.
	HandleMessage(origin ConnID, msg protocol.Message, subs *Subscriptions) []Outbound

	// Housekeep runs once per poll cycle, after message dispatch and
	// before the write flush. It exists so external work (a reloaded
	// rules file, a pending signal) is observed as a synchronous
	// disposition of the loop rather than from an asynchronous
	// context — and so it is never starved on an idle socket.
	Housekeep(subs *Subscriptions) []Outbound
}
