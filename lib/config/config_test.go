// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
	if cfg.SocketPath == "" {
		t.Error("default config has no socket path")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faderd.yaml")
	content := `
socket_path: /run/fader/test.sock
state_path: /var/lib/fader/state.db
max_clients: 8
poll_timeout: 250ms
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.SocketPath != "/run/fader/test.sock" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.MaxClients != 8 {
		t.Errorf("MaxClients = %d, want 8", cfg.MaxClients)
	}
	if cfg.PollTimeoutDuration() != 250*time.Millisecond {
		t.Errorf("PollTimeoutDuration = %v, want 250ms", cfg.PollTimeoutDuration())
	}
	// Unspecified fields keep their defaults.
	if cfg.DrainTimeoutDuration() != time.Second {
		t.Errorf("DrainTimeoutDuration = %v, want 1s", cfg.DrainTimeoutDuration())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		SocketPath:   "",
		MaxClients:   0,
		PollTimeout:  "soon",
		DrainTimeout: "1s",
		LogLevel:     "loud",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	message := err.Error()
	for _, fragment := range []string{"socket_path", "max_clients", "poll_timeout", "log_level"} {
		if !strings.Contains(message, fragment) {
			t.Errorf("validation error missing %q: %v", fragment, err)
		}
	}
}

func TestParseRules(t *testing.T) {
	data := []byte(`{
		// route media players to the music channel
		"rules": [
			{"program": "spotify", "target": "music"},
			{"program": "discord", "target": "voice"}, // trailing comma next
		],
	}`)

	rules, err := ParseRules(data)
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("parsed %d rules, want 2", len(rules))
	}
	if rules[0].Program != "spotify" || rules[0].Target != "music" {
		t.Errorf("first rule: %+v", rules[0])
	}
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty program", `{"rules": [{"program": "", "target": "music"}]}`},
		{"empty target", `{"rules": [{"program": "spotify", "target": ""}]}`},
		{"duplicate program", `{"rules": [
			{"program": "spotify", "target": "music"},
			{"program": "spotify", "target": "voice"}
		]}`},
		{"not json", `rules: nope`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tc.data)); err == nil {
				t.Errorf("ParseRules accepted %s", tc.name)
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.jsonc")
	content := `{
		"rules": [
			{"program": "mpv", "target": "media"},
		],
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Program != "mpv" {
		t.Errorf("rules = %+v", rules)
	}

	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("expected error for missing rules file")
	}
}
