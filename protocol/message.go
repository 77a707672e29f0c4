// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/fader-audio/fader/lib/codec"
)

// Kind discriminates the message variants. String-valued so wire
// captures stay human-readable in CBOR diagnostic output.
type Kind string

// Client-originated operations.
const (
	// KindSetVolume sets Target's level to Level (clamped to [0, 1]).
	KindSetVolume Kind = "set-volume"

	// KindAdjustVolume adds Delta to Target's level (clamped).
	KindAdjustVolume Kind = "adjust-volume"

	// KindSetMute sets Target's mute flag to Muted.
	KindSetMute Kind = "set-mute"

	// KindGetVolume asks for Target's current level and mute flag.
	KindGetVolume Kind = "get-volume"

	// KindSetProgram binds Program to the channel named Target, so
	// streams from that program route to it.
	KindSetProgram Kind = "set-program"

	// KindClearProgram removes Program's routing rule.
	KindClearProgram Kind = "clear-program"

	// KindListPrograms asks for all routing rules.
	KindListPrograms Kind = "list-programs"

	// KindSubscribe registers the connection for Topic notifications.
	// Subscribing twice is idempotent.
	KindSubscribe Kind = "subscribe"

	// KindUnsubscribe removes the connection from Topic.
	KindUnsubscribe Kind = "unsubscribe"

	// KindStatus asks for daemon status.
	KindStatus Kind = "status"
)

// Daemon-originated replies and notifications.
const (
	// KindVolume reports a channel's level and mute flag. Sent as the
	// reply to get-volume and the volume-change operations, and as the
	// fan-out notification on the "volume" topic.
	KindVolume Kind = "volume"

	// KindProgram reports one routing rule change. Cleared is true
	// when the rule was removed. Fan-out notification on the
	// "program" topic and the reply to set-program/clear-program.
	KindProgram Kind = "program"

	// KindProgramList carries all routing rules (reply to
	// list-programs).
	KindProgramList Kind = "program-list"

	// KindStatusReply carries daemon status.
	KindStatusReply Kind = "status-reply"

	// KindAck acknowledges an operation with no other reply payload.
	KindAck Kind = "ack"

	// KindError reports a rejected operation. The connection stays
	// open; only undecodable bytes close it.
	KindError Kind = "error"
)

// Topics connections can subscribe to.
const (
	// TopicVolume receives a KindVolume message for every level or
	// mute change on any channel.
	TopicVolume = "volume"

	// TopicProgram receives a KindProgram message for every routing
	// rule change, including rules-file reloads.
	TopicProgram = "program"
)

// KnownTopic reports whether topic names a defined subscription topic.
func KnownTopic(topic string) bool {
	return topic == TopicVolume || topic == TopicProgram
}

// MaxMessageSize bounds a single encoded message. A connection whose
// buffered bytes exceed this without forming a complete message is
// treated as malformed. Generous: the largest legitimate message is a
// program-list reply, well under 64 KiB for any sane rule count.
const MaxMessageSize = 64 * 1024

// ProgramRule binds a program name to a target channel.
type ProgramRule struct {
	Program string `json:"program"`
	Target  string `json:"target"`
}

// Message is the tagged wire message. Kind selects the variant; the
// remaining fields are payload and only the ones the variant uses are
// encoded (omitempty). json struct tags serve both CBOR (fxamacker's
// json-tag fallback) and the CLI's JSON output.
type Message struct {
	Kind Kind `json:"kind"`

	// Target is the channel name for volume operations, or the bound
	// channel for set-program.
	Target string `json:"target,omitempty"`

	// Level is an absolute volume in [0, 1].
	Level float64 `json:"level,omitempty"`

	// Delta is a signed volume adjustment for adjust-volume.
	Delta float64 `json:"delta,omitempty"`

	// Muted is the mute flag for set-mute and KindVolume.
	Muted bool `json:"muted,omitempty"`

	// Program is the program name for program operations.
	Program string `json:"program,omitempty"`

	// Cleared marks a KindProgram message that reports rule removal.
	Cleared bool `json:"cleared,omitempty"`

	// Topic is the subscription topic for subscribe/unsubscribe.
	Topic string `json:"topic,omitempty"`

	// Rules is the payload of KindProgramList.
	Rules []ProgramRule `json:"rules,omitempty"`

	// Reason is the human-readable explanation in KindError.
	Reason string `json:"reason,omitempty"`

	// Status payload (KindStatusReply).
	UptimeSeconds int64          `json:"uptime_seconds,omitempty"`
	Clients       int            `json:"clients,omitempty"`
	Subscriptions map[string]int `json:"subscriptions,omitempty"`
}

// ErrIncomplete reports that the buffer holds a strict prefix of a
// message. Not a fault: the caller retries once more bytes arrive.
var ErrIncomplete = errors.New("protocol: incomplete message")

// ErrMalformed reports bytes that can never become a valid message.
// The owning connection must be closed; other connections and the
// daemon itself are unaffected.
var ErrMalformed = errors.New("protocol: malformed message")

// Encode serializes m. It always succeeds for well-formed input; an
// encoding failure indicates a programming error in the caller.
func Encode(m Message) ([]byte, error) {
	return codec.Marshal(m)
}

// MustEncode is Encode for messages built from static values, where
// an encoding failure is unreachable.
func MustEncode(m Message) []byte {
	data, err := Encode(m)
	if err != nil {
		panic("protocol: encoding failed: " + err.Error())
	}
	return data
}

// Decode consumes exactly one message from the front of data and
// returns it with the number of bytes it occupied. Trailing bytes are
// untouched so a buffer holding several back-to-back messages (or a
// trailing fragment) decodes correctly across calls.
//
// The error is ErrIncomplete, ErrMalformed (wrapped with detail), or
// nil. A structurally valid CBOR item that is not a message map with
// a kind discriminator counts as malformed — undecodable input never
// produces a defaulted Message.
func Decode(data []byte) (Message, int, error) {
	var m Message
	rest, err := codec.UnmarshalFirst(data, &m)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, 0, ErrIncomplete
		}
		return Message{}, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Kind == "" {
		return Message{}, 0, fmt.Errorf("%w: missing kind discriminator", ErrMalformed)
	}
	return m, len(data) - len(rest), nil
}

// Errorf builds a KindError message.
func Errorf(format string, args ...any) Message {
	return Message{Kind: KindError, Reason: fmt.Sprintf(format, args...)}
}
