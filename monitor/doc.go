// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package monitor implements the live terminal view behind
// `fader watch`.
//
// It is a bubbletea program: channel levels render as lipgloss bars
// that update as volume notifications arrive, with a short log of
// recent routing changes underneath. The model itself is fed through
// a plain message channel, so it can be driven directly in tests;
// [Run] wires that channel to a daemon subscription stream.
//
// The monitor learns about channels from the notification stream, so
// it starts empty and fills in as levels change.
package monitor
