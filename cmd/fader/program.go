// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fader-audio/fader/cmd/fader/cli"
	"github.com/fader-audio/fader/protocol"
)

func newProgramCommand() *cli.Command {
	return &cli.Command{
		Name:    "program",
		Summary: "Manage program-to-channel routing rules",
		Subcommands: []*cli.Command{
			newProgramSetCommand(),
			newProgramClearCommand(),
			newProgramListCommand(),
		},
	}
}

func newProgramSetCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "set",
		Summary: "Route a program to a channel",
		Usage:   "fader program set <program> <target> [flags]",
		Examples: []cli.Example{
			{Description: "route mpv's audio to the music channel", Command: "fader program set mpv music"},
		},
		Flags: conn.flags("program set"),
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: fader program set <program> <target>")
			}
			reply, err := conn.call(protocol.Message{
				Kind:    protocol.KindSetProgram,
				Program: args[0],
				Target:  args[1],
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", reply.Program, reply.Target)
			return nil
		},
	}
}

func newProgramClearCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "clear",
		Summary: "Remove a program's routing rule",
		Usage:   "fader program clear <program> [flags]",
		Flags:   conn.flags("program clear"),
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: fader program clear <program>")
			}
			reply, err := conn.call(protocol.Message{
				Kind:    protocol.KindClearProgram,
				Program: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s cleared\n", reply.Program)
			return nil
		},
	}
}

func newProgramListCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "list",
		Summary: "List all routing rules",
		Usage:   "fader program list [flags]",
		Flags:   conn.flags("program list"),
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: fader program list")
			}
			reply, err := conn.call(protocol.Message{Kind: protocol.KindListPrograms})
			if err != nil {
				return err
			}
			if len(reply.Rules) == 0 {
				fmt.Println("no routing rules")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "PROGRAM\tTARGET\n")
			for _, rule := range reply.Rules {
				fmt.Fprintf(tw, "%s\t%s\n", rule.Program, rule.Target)
			}
			return tw.Flush()
		},
	}
}
