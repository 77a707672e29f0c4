// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/fader-audio/fader/lib/sqlitepool"
	"github.com/fader-audio/fader/protocol"
)

// ChannelState is the persisted state of one mixer channel.
type ChannelState struct {
	// Target names the channel ("music", "voice", ...). Primary key.
	Target string

	// Level is the channel volume in [0.0, 1.0].
	Level float64

	// Muted reports whether the channel is muted. Level is retained
	// while muted so unmute restores it.
	Muted bool
}

// Config holds the parameters for opening a state store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. Required.
	Path string

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Store persists channel state and program rules in SQLite. Safe for
// concurrent use; each method borrows its own pool connection.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

const schema = `
	CREATE TABLE IF NOT EXISTS channels (
		target TEXT PRIMARY KEY,
		level  REAL NOT NULL,
		muted  INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS program_rules (
		program TEXT PRIMARY KEY,
		target  TEXT NOT NULL
	);
`

// Open creates or opens the state database at cfg.Path, creating the
// schema if needed. The caller must call Close when done.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("statestore: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// SaveChannel writes a channel's state, replacing any existing row
// for the same target.
func (s *Store) SaveChannel(ctx context.Context, state ChannelState) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("statestore: save channel: %w", err)
	}
	defer s.pool.Put(conn)

	muted := 0
	if state.Muted {
		muted = 1
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO channels (target, level, muted) VALUES (?, ?, ?)
		 ON CONFLICT(target) DO UPDATE SET level = excluded.level, muted = excluded.muted`,
		&sqlitex.ExecOptions{
			Args: []any{state.Target, state.Level, muted},
		})
	if err != nil {
		return fmt.Errorf("statestore: save channel %q: %w", state.Target, err)
	}
	return nil
}

// LoadChannels returns all persisted channel states, sorted by target
// name. Returns nil if the store is empty.
func (s *Store) LoadChannels(ctx context.Context) ([]ChannelState, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("statestore: load channels: %w", err)
	}
	defer s.pool.Put(conn)

	var channels []ChannelState
	err = sqlitex.Execute(conn,
		"SELECT target, level, muted FROM channels ORDER BY target",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				channels = append(channels, ChannelState{
					Target: stmt.ColumnText(0),
					Level:  stmt.ColumnFloat(1),
					Muted:  stmt.ColumnInt(2) != 0,
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("statestore: load channels: %w", err)
	}
	return channels, nil
}

// SaveProgramRule writes a program routing rule, replacing any
// existing rule for the same program.
func (s *Store) SaveProgramRule(ctx context.Context, program, target string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("statestore: save rule: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO program_rules (program, target) VALUES (?, ?)
		 ON CONFLICT(program) DO UPDATE SET target = excluded.target`,
		&sqlitex.ExecOptions{
			Args: []any{program, target},
		})
	if err != nil {
		return fmt.Errorf("statestore: save rule %q: %w", program, err)
	}
	return nil
}

// DeleteProgramRule removes the rule for a program. No-op if the
// program has no rule.
func (s *Store) DeleteProgramRule(ctx context.Context, program string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("statestore: delete rule: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM program_rules WHERE program = ?",
		&sqlitex.ExecOptions{
			Args: []any{program},
		})
	if err != nil {
		return fmt.Errorf("statestore: delete rule %q: %w", program, err)
	}
	return nil
}

// LoadProgramRules returns all persisted routing rules, sorted by
// program name. Returns nil if there are none.
func (s *Store) LoadProgramRules(ctx context.Context) ([]protocol.ProgramRule, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("statestore: load rules: %w", err)
	}
	defer s.pool.Put(conn)

	var rules []protocol.ProgramRule
	err = sqlitex.Execute(conn,
		"SELECT program, target FROM program_rules ORDER BY program",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rules = append(rules, protocol.ProgramRule{
					Program: stmt.ColumnText(0),
					Target:  stmt.ColumnText(1),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("statestore: load rules: %w", err)
	}
	return rules, nil
}
