// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the fader daemon.
//
// Configuration is loaded from a single YAML file specified by:
//   - FADER_CONFIG environment variable, or
//   - --config flag passed to faderd
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// When no config file is given, faderd runs on Default values.
//
// Program routing rules live in a separate JSONC file (JSON extended
// with comments and trailing commas) referenced by rules_path. The
// rules file is authored by hand, so comments matter; it is reloaded
// by the daemon whenever it changes on disk.
package config
