// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides fader's standard CBOR encoding and decoding.
//
// All wire traffic between the daemon and its clients is CBOR (RFC
// 8949) with Core Deterministic Encoding: sorted map keys, smallest
// integer encoding, no indefinite-length items. The same logical
// message always produces identical bytes.
//
// CBOR data items are self-delimiting, which is why the socket
// protocol needs no length-prefix framing: the decoder knows where
// one message ends and the next begins, and a truncated item is
// distinguishable (io.ErrUnexpectedEOF) from one that can never
// become valid. [UnmarshalFirst] exposes exactly that property for
// the daemon's per-connection read buffers.
package codec
