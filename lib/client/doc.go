// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the blocking client library for the fader daemon.
//
// It speaks the protocol package's CBOR messages over a Unix domain
// socket with ordinary blocking I/O; the daemon side is where the
// non-blocking readiness machinery lives. The CLI, the monitor, and
// the integration tests all talk to the daemon through this package.
//
// A Client is not safe for concurrent use. Request/reply callers use
// [Client.Call]; notification consumers call [Client.Subscribe] once
// and then loop on [Client.Recv].
package client
