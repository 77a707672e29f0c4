// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fader-audio/fader/lib/client"
	"github.com/fader-audio/fader/protocol"
)

// Run connects to the daemon, subscribes to both topics, and drives
// the monitor UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, socketPath string) error {
	c, err := client.Dial(socketPath)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Subscribe(ctx, protocol.TopicVolume); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	if err := c.Subscribe(ctx, protocol.TopicProgram); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	events := make(chan tea.Msg, 16)
	go pump(c, events)

	program := tea.NewProgram(NewModel(events), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}

// pump forwards the subscription stream into the model's message
// channel. It exits on the first receive error, which includes the
// Close from Run's defer once the UI quits.
func pump(c *client.Client, events chan<- tea.Msg) {
	for {
		msg, err := c.Recv(context.Background())
		if err != nil {
			select {
			case events <- StreamErrorMsg{Err: err}:
			default:
			}
			return
		}
		events <- NotificationMsg(msg)
	}
}
