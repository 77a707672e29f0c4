// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Full-stack tests: a real daemon running the real mixer, exercised
// through the client library over a real socket.
package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/fader-audio/fader/daemon"
	"github.com/fader-audio/fader/lib/client"
	"github.com/fader-audio/fader/lib/statestore"
	"github.com/fader-audio/fader/lib/testutil"
	"github.com/fader-audio/fader/mixer"
	"github.com/fader-audio/fader/protocol"
)

// startDaemon runs a daemon with a fresh mixer and persistent store,
// returning the socket path.
func startDaemon(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := statestore.Open(statestore.Config{
		Path:   filepath.Join(t.TempDir(), "state.db"),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler, err := mixer.New(mixer.Config{Logger: logger, Store: store})
	if err != nil {
		t.Fatalf("creating mixer: %v", err)
	}

	socketPath := filepath.Join(testutil.SocketDir(t), "faderd.sock")
	server := daemon.New(daemon.Config{
		SocketPath:  socketPath,
		PollTimeout: 50 * time.Millisecond,
	}, handler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, 5*time.Second, "daemon shutdown"); err != nil {
			t.Errorf("Run: %v", err)
		}
	})

	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "daemon ready")
	return socketPath
}

func dial(t *testing.T, socketPath string) *client.Client {
	t.Helper()
	c, err := client.Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCallRoundtrip(t *testing.T) {
	socketPath := startDaemon(t)
	c := dial(t, socketPath)
	ctx := callCtx(t)

	reply, err := c.Call(ctx, protocol.Message{Kind: protocol.KindSetVolume, Target: "music", Level: 0.5})
	if err != nil {
		t.Fatalf("set-volume: %v", err)
	}
	if reply.Kind != protocol.KindVolume || reply.Level != 0.5 {
		t.Errorf("set-volume reply: %+v", reply)
	}

	reply, err = c.Call(ctx, protocol.Message{Kind: protocol.KindGetVolume, Target: "music"})
	if err != nil {
		t.Fatalf("get-volume: %v", err)
	}
	if reply.Level != 0.5 {
		t.Errorf("get-volume reply: %+v", reply)
	}
}

func TestCallSurfacesDaemonError(t *testing.T) {
	socketPath := startDaemon(t)
	c := dial(t, socketPath)
	ctx := callCtx(t)

	_, err := c.Call(ctx, protocol.Message{Kind: protocol.KindGetVolume, Target: "nonexistent"})
	var daemonErr *client.DaemonError
	if !errors.As(err, &daemonErr) {
		t.Fatalf("get-volume on unknown channel: %v, want DaemonError", err)
	}

	// The connection survives a rejected operation.
	if _, err := c.Call(ctx, protocol.Message{Kind: protocol.KindStatus}); err != nil {
		t.Fatalf("status after error reply: %v", err)
	}
}

func TestSubscribeStream(t *testing.T) {
	socketPath := startDaemon(t)
	subscriber := dial(t, socketPath)
	operator := dial(t, socketPath)
	ctx := callCtx(t)

	if err := subscriber.Subscribe(ctx, protocol.TopicVolume); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := operator.Call(ctx, protocol.Message{Kind: protocol.KindSetVolume, Target: "music", Level: 0.25}); err != nil {
		t.Fatalf("set-volume: %v", err)
	}
	if _, err := operator.Call(ctx, protocol.Message{Kind: protocol.KindSetMute, Target: "music", Muted: true}); err != nil {
		t.Fatalf("set-mute: %v", err)
	}

	// Notifications from one sender arrive in operation order.
	first, err := subscriber.Recv(ctx)
	if err != nil {
		t.Fatalf("first notification: %v", err)
	}
	if first.Kind != protocol.KindVolume || first.Level != 0.25 || first.Muted {
		t.Errorf("first notification: %+v", first)
	}

	second, err := subscriber.Recv(ctx)
	if err != nil {
		t.Fatalf("second notification: %v", err)
	}
	if !second.Muted || second.Level != 0.25 {
		t.Errorf("second notification: %+v", second)
	}
}

func TestSubscribeUnknownTopic(t *testing.T) {
	socketPath := startDaemon(t)
	c := dial(t, socketPath)

	err := c.Subscribe(callCtx(t), "gossip")
	var daemonErr *client.DaemonError
	if !errors.As(err, &daemonErr) {
		t.Fatalf("subscribe to unknown topic: %v, want DaemonError", err)
	}
}

func TestProgramWorkflow(t *testing.T) {
	socketPath := startDaemon(t)
	c := dial(t, socketPath)
	ctx := callCtx(t)

	if _, err := c.Call(ctx, protocol.Message{Kind: protocol.KindSetProgram, Program: "spotify", Target: "music"}); err != nil {
		t.Fatalf("set-program: %v", err)
	}
	if _, err := c.Call(ctx, protocol.Message{Kind: protocol.KindSetProgram, Program: "discord", Target: "voice"}); err != nil {
		t.Fatalf("set-program: %v", err)
	}

	reply, err := c.Call(ctx, protocol.Message{Kind: protocol.KindListPrograms})
	if err != nil {
		t.Fatalf("list-programs: %v", err)
	}
	if len(reply.Rules) != 2 || reply.Rules[0].Program != "discord" {
		t.Errorf("program list: %+v", reply.Rules)
	}

	if _, err := c.Call(ctx, protocol.Message{Kind: protocol.KindClearProgram, Program: "discord"}); err != nil {
		t.Fatalf("clear-program: %v", err)
	}
	reply, err = c.Call(ctx, protocol.Message{Kind: protocol.KindListPrograms})
	if err != nil {
		t.Fatalf("list-programs: %v", err)
	}
	if len(reply.Rules) != 1 || reply.Rules[0].Program != "spotify" {
		t.Errorf("program list after clear: %+v", reply.Rules)
	}
}

func TestRecvTimeout(t *testing.T) {
	socketPath := startDaemon(t)
	c := dial(t, socketPath)

	if err := c.Subscribe(callCtx(t), protocol.TopicVolume); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Nothing is changing volumes, so a bounded Recv must time out
	// rather than hang.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Recv(ctx); err == nil {
		t.Fatal("Recv returned without any notification pending")
	}
}

func TestStatusCountsClients(t *testing.T) {
	socketPath := startDaemon(t)
	first := dial(t, socketPath)
	second := dial(t, socketPath)
	ctx := callCtx(t)

	// Both connections are registered once their first message is
	// processed; ask through one of them.
	if _, err := second.Call(ctx, protocol.Message{Kind: protocol.KindStatus}); err != nil {
		t.Fatalf("warm-up status: %v", err)
	}
	reply, err := first.Call(ctx, protocol.Message{Kind: protocol.KindStatus})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if reply.Kind != protocol.KindStatusReply || reply.Clients != 2 {
		t.Errorf("status: %+v, want 2 clients", reply)
	}
}
