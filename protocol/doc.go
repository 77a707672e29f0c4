// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the wire messages exchanged between the
// fader daemon and its clients, and the incremental decoder the
// daemon runs over per-connection read buffers.
//
// A message is a single CBOR map with a "kind" discriminator and
// kind-specific optional fields (see [Message]). CBOR items are
// self-delimiting, so the stream needs no length-prefix framing:
// [Decode] consumes exactly one message and reports how many bytes it
// occupied, leaving trailing bytes for the next call.
//
// Decode distinguishes three outcomes: a complete message, an
// incomplete one ([ErrIncomplete] — wait for more bytes, nothing is
// discarded), and bytes that can never become a valid message
// ([ErrMalformed] — fatal to that connection, not to the daemon).
package protocol
