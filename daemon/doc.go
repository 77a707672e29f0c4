// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemon implements the fader event loop: a single logical
// thread that multiplexes every client over one Unix domain socket
// with poll(2) readiness waits on non-blocking descriptors.
//
// The loop owns all mutable state — the connection table, the
// subscription registry, and every per-connection buffer — so no
// locks exist anywhere in this package. Suspension happens only
// inside the bounded readiness wait; every read, write, and accept is
// issued against a non-blocking descriptor, and a would-block result
// is a normal outcome, never an error.
//
// Domain behavior lives behind the [Handler] interface. The loop
// decodes complete messages off each connection's buffer, hands them
// to the handler together with the subscription registry, and queues
// whatever outbound messages the handler returns. Within one poll
// cycle reads are processed before writes, so a reply generated from
// a freshly read request goes out the same cycle.
//
// Connections discovered dead during a cycle (peer close, I/O fault,
// protocol violation) are parked on a pending-removal list and reaped
// at the end of that cycle: unsubscribed from every topic, dropped
// from the table, descriptor closed. Nothing outlives the cycle that
// killed it.
package daemon
