// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"

	"github.com/fader-audio/fader/cmd/fader/cli"
	"github.com/fader-audio/fader/protocol"
)

func newVolumeCommand() *cli.Command {
	return &cli.Command{
		Name:    "volume",
		Summary: "Get and set channel volumes",
		Subcommands: []*cli.Command{
			newVolumeGetCommand(),
			newVolumeSetCommand(),
			newVolumeAdjustCommand(),
			newVolumeMuteCommand(),
		},
	}
}

func newVolumeGetCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "get",
		Summary: "Print a channel's level and mute flag",
		Usage:   "fader volume get <target> [flags]",
		Flags:   conn.flags("volume get"),
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: fader volume get <target>")
			}
			reply, err := conn.call(protocol.Message{Kind: protocol.KindGetVolume, Target: args[0]})
			if err != nil {
				return err
			}
			printVolume(reply)
			return nil
		},
	}
}

func newVolumeSetCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "set",
		Summary: "Set a channel's level",
		Usage:   "fader volume set <target> <level> [flags]",
		Examples: []cli.Example{
			{Description: "half volume on the music channel", Command: "fader volume set music 0.5"},
		},
		Flags: conn.flags("volume set"),
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: fader volume set <target> <level>")
			}
			level, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("level must be a number in [0, 1]: %w", err)
			}
			reply, err := conn.call(protocol.Message{
				Kind:   protocol.KindSetVolume,
				Target: args[0],
				Level:  level,
			})
			if err != nil {
				return err
			}
			printVolume(reply)
			return nil
		},
	}
}

func newVolumeAdjustCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "adjust",
		Summary: "Adjust a channel's level by a signed delta",
		Usage:   "fader volume adjust <target> <delta> [flags]",
		Examples: []cli.Example{
			{Description: "nudge voice down by 10%", Command: "fader volume adjust voice -- -0.1"},
		},
		Flags: conn.flags("volume adjust"),
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: fader volume adjust <target> <delta>")
			}
			delta, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("delta must be a number: %w", err)
			}
			reply, err := conn.call(protocol.Message{
				Kind:   protocol.KindAdjustVolume,
				Target: args[0],
				Delta:  delta,
			})
			if err != nil {
				return err
			}
			printVolume(reply)
			return nil
		},
	}
}

func newVolumeMuteCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "mute",
		Summary: "Mute or unmute a channel",
		Usage:   "fader volume mute <target> <on|off> [flags]",
		Flags:   conn.flags("volume mute"),
		Run: func(args []string) error {
			if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
				return fmt.Errorf("usage: fader volume mute <target> <on|off>")
			}
			reply, err := conn.call(protocol.Message{
				Kind:   protocol.KindSetMute,
				Target: args[0],
				Muted:  args[1] == "on",
			})
			if err != nil {
				return err
			}
			printVolume(reply)
			return nil
		},
	}
}
