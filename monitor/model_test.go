// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fader-audio/fader/protocol"
)

// deliver applies one message and returns the updated model.
func deliver(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T", updated)
	}
	return next
}

func TestViewStartsEmpty(t *testing.T) {
	m := NewModel(make(chan tea.Msg))
	view := m.View()
	if !strings.Contains(view, "waiting for volume changes") {
		t.Errorf("empty view missing placeholder:\n%s", view)
	}
}

func TestVolumeNotificationRendersBar(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	m = deliver(t, m, NotificationMsg(protocol.Message{
		Kind: protocol.KindVolume, Target: "music", Level: 0.5,
	}))

	view := m.View()
	if !strings.Contains(view, "music") {
		t.Errorf("view missing channel name:\n%s", view)
	}
	if !strings.Contains(view, "50%") {
		t.Errorf("view missing level percentage:\n%s", view)
	}
	if strings.Contains(view, "waiting for volume changes") {
		t.Errorf("placeholder still shown with a channel present:\n%s", view)
	}
}

func TestMutedChannelTagged(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	m = deliver(t, m, NotificationMsg(protocol.Message{
		Kind: protocol.KindVolume, Target: "voice", Level: 0.7, Muted: true,
	}))

	if view := m.View(); !strings.Contains(view, "muted") {
		t.Errorf("view missing mute tag:\n%s", view)
	}
}

func TestChannelsSortedByName(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	for _, target := range []string{"voice", "alerts", "music"} {
		m = deliver(t, m, NotificationMsg(protocol.Message{
			Kind: protocol.KindVolume, Target: target, Level: 0.5,
		}))
	}

	view := m.View()
	alerts := strings.Index(view, "alerts")
	music := strings.Index(view, "music")
	voice := strings.Index(view, "voice")
	if !(alerts < music && music < voice) {
		t.Errorf("channels out of order (alerts=%d music=%d voice=%d):\n%s",
			alerts, music, voice, view)
	}
}

func TestRoutingLogCapped(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	for i := 0; i < eventLogSize+3; i++ {
		m = deliver(t, m, NotificationMsg(protocol.Message{
			Kind:    protocol.KindProgram,
			Program: string(rune('a' + i)),
			Target:  "music",
		}))
	}

	if len(m.log) != eventLogSize {
		t.Errorf("log holds %d events, want %d", len(m.log), eventLogSize)
	}
	// The oldest entries are the ones dropped.
	if m.log[0].text != "d → music" {
		t.Errorf("oldest kept event: %q", m.log[0].text)
	}
}

func TestClearedRuleInLog(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	m = deliver(t, m, NotificationMsg(protocol.Message{
		Kind: protocol.KindProgram, Program: "spotify", Cleared: true,
	}))

	if view := m.View(); !strings.Contains(view, "spotify cleared") {
		t.Errorf("view missing cleared rule:\n%s", view)
	}
}

func TestStreamErrorShown(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	m = deliver(t, m, StreamErrorMsg{Err: errors.New("connection reset")})

	if view := m.View(); !strings.Contains(view, "connection reset") {
		t.Errorf("view missing stream error:\n%s", view)
	}
}

func TestQuitKeys(t *testing.T) {
	m := NewModel(make(chan tea.Msg, 1))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q did not produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
