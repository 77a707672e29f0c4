// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestDispatchToSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "fader",
		Subcommands: []*Command{
			{
				Name: "volume",
				Subcommands: []*Command{
					{Name: "set", Run: func(args []string) error {
						ran = args
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute([]string{"volume", "set", "music", "0.5"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 2 || ran[0] != "music" || ran[1] != "0.5" {
		t.Errorf("leaf received args %v", ran)
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "fader",
		Subcommands: []*Command{
			{Name: "volume", Run: func([]string) error { return nil }},
			{Name: "program", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"volmue"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `"volume"`) {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestFlagParsing(t *testing.T) {
	var socket string
	flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
	flags.StringVar(&socket, "socket", "/default.sock", "daemon socket")

	cmd := &Command{
		Name:  "status",
		Flags: func() *pflag.FlagSet { return flags },
		Run:   func([]string) error { return nil },
	}

	if err := cmd.Execute([]string{"--socket", "/tmp/test.sock"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if socket != "/tmp/test.sock" {
		t.Errorf("socket = %q", socket)
	}
}

func TestUnknownFlagSuggestion(t *testing.T) {
	flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
	flags.String("socket", "", "daemon socket")

	cmd := &Command{
		Name:  "status",
		Flags: func() *pflag.FlagSet { return flags },
		Run:   func([]string) error { return nil },
	}

	err := cmd.Execute([]string{"--sokcet", "/tmp/x.sock"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--socket") {
		t.Errorf("error lacks flag suggestion: %v", err)
	}
}

func TestSubcommandRequiredShowsHelp(t *testing.T) {
	root := &Command{
		Name:        "fader",
		Subcommands: []*Command{{Name: "status", Summary: "daemon status"}},
	}

	if err := root.Execute(nil); err == nil {
		t.Fatal("expected subcommand-required error")
	}
}

func TestHelpFlagIsNotAnError(t *testing.T) {
	root := &Command{
		Name:        "fader",
		Subcommands: []*Command{{Name: "status", Summary: "daemon status"}},
	}
	if err := root.Execute([]string{"--help"}); err != nil {
		t.Errorf("--help returned error: %v", err)
	}
}

func TestPrintHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "fader",
		Summary: "control the fader daemon",
		Subcommands: []*Command{
			{Name: "volume", Summary: "channel volume operations"},
			{Name: "watch", Summary: "live level monitor"},
		},
	}

	var out strings.Builder
	root.PrintHelp(&out)
	help := out.String()
	for _, expected := range []string{"volume", "channel volume operations", "watch"} {
		if !strings.Contains(help, expected) {
			t.Errorf("help missing %q:\n%s", expected, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"volume", "volmue", 2},
		{"status", "stats", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
