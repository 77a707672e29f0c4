// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// sampleRequest mirrors the shape of fader wire messages: a kind
// discriminator plus optional payload fields.
type sampleRequest struct {
	Kind   string  `json:"kind"`
	Target string  `json:"target,omitempty"`
	Level  float64 `json:"level,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRequest{
		Kind:   "set-volume",
		Target: "music",
		Level:  0.5,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRequest
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	message := sampleRequest{Kind: "subscribe", Target: "volume"}

	first, err := Marshal(message)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(message)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestUnmarshalFirstConsumesOneItem(t *testing.T) {
	messages := []sampleRequest{
		{Kind: "subscribe", Target: "volume"},
		{Kind: "set-volume", Target: "music", Level: 0.25},
		{Kind: "status"},
	}

	var buffer []byte
	for _, message := range messages {
		data, err := Marshal(message)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		buffer = append(buffer, data...)
	}

	for i, want := range messages {
		var got sampleRequest
		rest, err := UnmarshalFirst(buffer, &got)
		if err != nil {
			t.Fatalf("UnmarshalFirst message %d: %v", i, err)
		}
		if got != want {
			t.Errorf("message %d: got %+v, want %+v", i, got, want)
		}
		buffer = rest
	}
	if len(buffer) != 0 {
		t.Errorf("expected no remaining bytes, got %d", len(buffer))
	}
}

func TestUnmarshalFirstTruncated(t *testing.T) {
	data, err := Marshal(sampleRequest{Kind: "set-volume", Target: "music", Level: 0.5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Every strict prefix must report incomplete data, never success
	// and never a non-EOF decode error.
	for cut := 0; cut < len(data); cut++ {
		var decoded sampleRequest
		_, err := UnmarshalFirst(data[:cut], &decoded)
		if err == nil {
			t.Fatalf("prefix of %d/%d bytes decoded without error", cut, len(data))
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			t.Fatalf("prefix of %d/%d bytes: got %v, want EOF or unexpected EOF", cut, len(data), err)
		}
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var message sampleRequest
	err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &message)
	if err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	messages := []sampleRequest{
		{Kind: "get-volume", Target: "music"},
		{Kind: "volume", Target: "music", Level: 0.75},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, message := range messages {
		if err := encoder.Encode(message); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range messages {
		var got sampleRequest
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode message %d: %v", i, err)
		}
		if got != want {
			t.Errorf("message %d: got %+v, want %+v", i, got, want)
		}
	}
}
