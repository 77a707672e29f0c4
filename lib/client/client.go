// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/fader-audio/fader/lib/codec"
	"github.com/fader-audio/fader/protocol"
)

// DaemonError is a KindError reply surfaced as a Go error. The
// connection remains usable: the daemon rejected one operation, it
// did not fail.
type DaemonError struct {
	Reason string
}

func (e *DaemonError) Error() string {
	return "faderd: " + e.Reason
}

// Client is a blocking connection to the fader daemon.
type Client struct {
	conn    net.Conn
	decoder *codec.Decoder
}

// Dial connects to the daemon socket. A leading "@" in socketPath
// addresses the Linux abstract namespace.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("client: dialing %s: %w", socketPath, err)
	}
	return &Client{
		conn:    conn,
		decoder: codec.NewDecoder(conn),
	}, nil
}

// Close closes the connection. The daemon reaps the connection and
// its subscriptions on its next poll cycle.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one message. It does not wait for a reply.
func (c *Client) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("client: encoding %s: %w", msg.Kind, err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("client: sending %s: %w", msg.Kind, err)
	}
	return nil
}

// Recv blocks until the next message arrives. The context deadline,
// if any, bounds the wait. Used to consume the notification stream
// after Subscribe.
func (c *Client) Recv(ctx context.Context) (protocol.Message, error) {
	if err := c.applyDeadline(ctx); err != nil {
		return protocol.Message{}, err
	}
	var msg protocol.Message
	if err := c.decoder.Decode(&msg); err != nil {
		return protocol.Message{}, fmt.Errorf("client: receiving: %w", err)
	}
	return msg, nil
}

// Call sends msg and returns the daemon's reply. The daemon replies
// to every operation in arrival order, so on a connection used only
// for calls the next message is the reply. A KindError reply is
// returned as a *DaemonError.
//
// Do not mix Call with an active subscription on the same connection:
// a fan-out notification could arrive between the request and its
// reply. Use a second connection for calls, the way the CLI does.
func (c *Client) Call(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	if err := c.Send(msg); err != nil {
		return protocol.Message{}, err
	}
	reply, err := c.Recv(ctx)
	if err != nil {
		return protocol.Message{}, err
	}
	if reply.Kind == protocol.KindError {
		return protocol.Message{}, &DaemonError{Reason: reply.Reason}
	}
	return reply, nil
}

// Subscribe registers this connection for a topic's notifications and
// waits for the acknowledgement. After Subscribe returns, every
// matching state change arrives via Recv.
func (c *Client) Subscribe(ctx context.Context, topic string) error {
	reply, err := c.Call(ctx, protocol.Message{Kind: protocol.KindSubscribe, Topic: topic})
	if err != nil {
		return err
	}
	if reply.Kind != protocol.KindAck {
		return fmt.Errorf("client: subscribe to %q: unexpected reply %q", topic, reply.Kind)
	}
	return nil
}

// applyDeadline maps the context deadline onto the socket. A context
// without a deadline clears any previous one.
func (c *Client) applyDeadline(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("client: setting deadline: %w", err)
	}
	return nil
}
