// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/fader-audio/fader/cmd/fader/cli"
	"github.com/fader-audio/fader/lib/client"
	"github.com/fader-audio/fader/monitor"
	"github.com/fader-audio/fader/protocol"
)

func newSubscribeCommand() *cli.Command {
	var conn daemonFlags
	var topic string
	baseFlags := conn.flags("subscribe")
	return &cli.Command{
		Name:    "subscribe",
		Summary: "Stream change notifications as JSON lines",
		Usage:   "fader subscribe [--topic volume|program] [flags]",
		Examples: []cli.Example{
			{Description: "follow routing changes only", Command: "fader subscribe --topic program"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := baseFlags()
			if flagSet.Lookup("topic") == nil {
				flagSet.StringVar(&topic, "topic", "", "only this topic (default: all topics)")
			}
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: fader subscribe [--topic volume|program]")
			}
			topics := []string{protocol.TopicVolume, protocol.TopicProgram}
			if topic != "" {
				if !protocol.KnownTopic(topic) {
					return fmt.Errorf("unknown topic %q", topic)
				}
				topics = []string{topic}
			}
			return streamNotifications(conn.socket, topics)
		},
	}
}

// streamNotifications subscribes to the given topics and writes each
// notification to stdout as one JSON object per line, until the daemon
// goes away or the user interrupts.
func streamNotifications(socketPath string, topics []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(socketPath)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, topic := range topics {
		if err := c.Subscribe(ctx, topic); err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	for {
		msg, err := c.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream ended: %w", err)
		}
		if err := encoder.Encode(msg); err != nil {
			return err
		}
	}
}

func newStatusCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:    "status",
		Summary: "Show daemon uptime and connection counts",
		Usage:   "fader status [flags]",
		Flags:   conn.flags("status"),
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: fader status")
			}
			reply, err := conn.call(protocol.Message{Kind: protocol.KindStatus})
			if err != nil {
				return err
			}
			fmt.Printf("uptime:  %s\n", formatUptime(reply.UptimeSeconds))
			fmt.Printf("clients: %d\n", reply.Clients)
			if len(reply.Subscriptions) > 0 {
				fmt.Println("subscriptions:")
				for _, topic := range []string{protocol.TopicVolume, protocol.TopicProgram} {
					if n, ok := reply.Subscriptions[topic]; ok {
						fmt.Printf("  %-8s %d\n", topic, n)
					}
				}
			}
			return nil
		},
	}
}

// formatUptime renders seconds as a compact h/m/s string.
func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm%ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh%dm", seconds/3600, (seconds%3600)/60)
}

func newWatchCommand() *cli.Command {
	var conn daemonFlags
	return &cli.Command{
		Name:        "watch",
		Summary:     "Live terminal dashboard of levels and routing",
		Description: "Watch runs a full-screen dashboard showing channel levels,\nmute state, and recent routing changes as they happen.\nWhen stdout is not a terminal it falls back to JSON lines,\nlike 'fader subscribe'.",
		Usage:       "fader watch [flags]",
		Flags:       conn.flags("watch"),
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: fader watch")
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return streamNotifications(conn.socket, []string{protocol.TopicVolume, protocol.TopicProgram})
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err := monitor.Run(ctx, conn.socket)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
