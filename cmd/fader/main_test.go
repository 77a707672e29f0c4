// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	want := []string{"volume", "program", "subscribe", "status", "watch", "version"}
	if len(root.Subcommands) != len(want) {
		t.Fatalf("got %d subcommands, want %d", len(root.Subcommands), len(want))
	}
	for i, name := range want {
		if root.Subcommands[i].Name != name {
			t.Errorf("subcommand %d = %q, want %q", i, root.Subcommands[i].Name, name)
		}
	}
}

func TestVolumeSetRejectsBadLevel(t *testing.T) {
	cmd := newVolumeSetCommand()
	if err := cmd.Execute([]string{"music", "loud"}); err == nil {
		t.Error("expected error for non-numeric level")
	}
}

func TestVolumeMuteRejectsBadState(t *testing.T) {
	cmd := newVolumeMuteCommand()
	if err := cmd.Execute([]string{"music", "maybe"}); err == nil {
		t.Error("expected error for state other than on/off")
	}
}

func TestSubscribeRejectsUnknownTopic(t *testing.T) {
	cmd := newSubscribeCommand()
	if err := cmd.Execute([]string{"--topic", "weather", "--socket", "/nonexistent.sock"}); err == nil {
		t.Error("expected error for unknown topic")
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{42, "42s"},
		{90, "1m30s"},
		{3660, "1h1m"},
	}
	for _, tc := range cases {
		if got := formatUptime(tc.seconds); got != tc.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
