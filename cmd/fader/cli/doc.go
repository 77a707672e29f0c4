// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the command tree for the fader CLI.
//
// Commands form a tree dispatched by positional arguments: the first
// argument selects a subcommand, recursively, until a leaf with a Run
// function is reached. Flags are parsed per command with pflag.
// Unknown commands and flags get a closest-match suggestion instead
// of a bare error.
package cli
