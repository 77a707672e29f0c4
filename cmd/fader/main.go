// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Command fader is the command-line client for faderd. It talks to the
// daemon over its Unix socket: one-shot volume and routing operations,
// a JSON notification stream, and a live terminal dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/fader-audio/fader/cmd/fader/cli"
	"github.com/fader-audio/fader/lib/version"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "fader",
		Summary: "Control the fader audio mixer daemon",
		Description: "fader controls a running faderd instance: set and query\n" +
			"channel volumes, manage program routing rules, and watch\n" +
			"changes live.",
		Subcommands: []*cli.Command{
			newVolumeCommand(),
			newProgramCommand(),
			newSubscribeCommand(),
			newStatusCommand(),
			newWatchCommand(),
			newVersionCommand(),
		},
	}
}

func newVersionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version and build information",
		Run: func(args []string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}

func main() {
	if err := newRootCommand().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fader: %v\n", err)
		os.Exit(1)
	}
}
