// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package statestore persists mixer state across daemon restarts.
//
// The store holds two small tables in a SQLite file managed by
// [github.com/fader-audio/fader/lib/sqlitepool]: per-target channel
// state (level and mute flag) and program-to-target routing rules.
// The daemon writes through on every state change and loads the whole
// store once at startup, so a restart resumes with the levels that
// were in effect when the previous process exited.
//
// The store is a cache of last-known-good state, not a source of
// truth for configuration: rules loaded from the rules file are
// applied on top of whatever the store remembers.
package statestore
