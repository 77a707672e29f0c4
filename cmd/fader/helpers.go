// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/fader-audio/fader/lib/client"
	"github.com/fader-audio/fader/lib/config"
	"github.com/fader-audio/fader/protocol"
)

// daemonFlags carries the connection flags every daemon-talking
// command shares. Each command embeds its own instance so flag values
// do not leak between commands in tests.
type daemonFlags struct {
	socket  string
	timeout time.Duration

	flagSet *pflag.FlagSet
}

// flags returns the command's flag set, creating it on first call.
// The same instance is returned every time so parsed values are
// visible to the command's Run function.
func (d *daemonFlags) flags(name string) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		if d.flagSet == nil {
			d.flagSet = pflag.NewFlagSet(name, pflag.ContinueOnError)
			d.flagSet.StringVar(&d.socket, "socket", config.Default().SocketPath, "daemon socket path")
			d.flagSet.DurationVar(&d.timeout, "timeout", 5*time.Second, "per-call timeout")
		}
		return d.flagSet
	}
}

// call dials the daemon, performs one request/reply exchange, and
// closes the connection.
func (d *daemonFlags) call(msg protocol.Message) (protocol.Message, error) {
	c, err := client.Dial(d.socket)
	if err != nil {
		return protocol.Message{}, err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return c.Call(ctx, msg)
}

// printVolume renders a KindVolume reply for humans.
func printVolume(msg protocol.Message) {
	suffix := ""
	if msg.Muted {
		suffix = " (muted)"
	}
	fmt.Printf("%s: %.0f%%%s\n", msg.Target, msg.Level*100, suffix)
}
