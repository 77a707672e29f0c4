// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import "testing"

func TestSubscribeIdempotent(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("volume", 1)
	subs.Subscribe("volume", 1)

	if got := len(subs.Subscribers("volume")); got != 1 {
		t.Errorf("duplicate subscribe produced %d entries, want 1", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("volume", 1)
	subs.Subscribe("volume", 2)
	subs.Unsubscribe("volume", 1)

	subscribers := subs.Subscribers("volume")
	if len(subscribers) != 1 || subscribers[0] != 2 {
		t.Errorf("got subscribers %v, want [2]", subscribers)
	}

	// Non-member and unknown topic are no-ops.
	subs.Unsubscribe("volume", 99)
	subs.Unsubscribe("midi", 2)
	if got := len(subs.Subscribers("volume")); got != 1 {
		t.Errorf("no-op unsubscribe changed membership: %d entries", got)
	}
}

func TestUnsubscribeAll(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("volume", 1)
	subs.Subscribe("program", 1)
	subs.Subscribe("volume", 2)

	subs.UnsubscribeAll(1)

	if got := subs.Subscribers("volume"); len(got) != 1 || got[0] != 2 {
		t.Errorf("volume subscribers after removal: %v, want [2]", got)
	}
	if got := subs.Subscribers("program"); len(got) != 0 {
		t.Errorf("program subscribers after removal: %v, want none", got)
	}
}

func TestCounts(t *testing.T) {
	subs := NewSubscriptions()
	if subs.Counts() != nil {
		t.Error("empty registry should report nil counts")
	}

	subs.Subscribe("volume", 1)
	subs.Subscribe("volume", 2)
	subs.Subscribe("program", 1)

	counts := subs.Counts()
	if counts["volume"] != 2 || counts["program"] != 1 {
		t.Errorf("counts = %v, want volume:2 program:1", counts)
	}
}
