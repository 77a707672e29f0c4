// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Command faderd is the fader audio-control daemon. It listens on a
// Unix domain socket, multiplexes all clients in a single-threaded
// poll loop, and fans volume/program changes out to subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fader-audio/fader/daemon"
	"github.com/fader-audio/fader/lib/config"
	"github.com/fader-audio/fader/lib/statestore"
	"github.com/fader-audio/fader/lib/version"
	"github.com/fader-audio/fader/mixer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to faderd.yaml (default: FADER_CONFIG env var, then built-in defaults)")
	flag.StringVar(&socketPath, "socket", "", "listen socket path (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("faderd %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *statestore.Store
	if cfg.StatePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
		store, err = statestore.Open(statestore.Config{
			Path:   cfg.StatePath,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var watcher *mixer.RulesWatcher
	if cfg.RulesPath != "" {
		watcher, err = mixer.NewRulesWatcher(cfg.RulesPath, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	handler, err := mixer.New(mixer.Config{
		Logger:    logger,
		Store:     store,
		RulesPath: cfg.RulesPath,
		Watcher:   watcher,
	})
	if err != nil {
		return err
	}

	server := daemon.New(daemon.Config{
		SocketPath:   cfg.SocketPath,
		MaxClients:   cfg.MaxClients,
		PollTimeout:  cfg.PollTimeoutDuration(),
		DrainTimeout: cfg.DrainTimeoutDuration(),
	}, handler, logger)

	logger.Info("faderd starting",
		"version", version.Short(),
		"socket", cfg.SocketPath,
		"max_clients", cfg.MaxClients,
	)

	return server.Run(ctx)
}
