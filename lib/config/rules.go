// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/fader-audio/fader/protocol"
)

// rulesFile is the on-disk shape of the program rules file.
type rulesFile struct {
	Rules []protocol.ProgramRule `json:"rules"`
}

// ParseRules strips JSONC comments and trailing commas from data,
// then unmarshals the result into program routing rules. Validation
// rejects empty program or target names and duplicate programs.
func ParseRules(data []byte) ([]protocol.ProgramRule, error) {
	stripped := jsonc.ToJSON(data)

	var file rulesFile
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	seen := make(map[string]bool, len(file.Rules))
	for i, rule := range file.Rules {
		if rule.Program == "" {
			return nil, fmt.Errorf("rule %d: program is required", i)
		}
		if rule.Target == "" {
			return nil, fmt.Errorf("rule %d (%s): target is required", i, rule.Program)
		}
		if seen[rule.Program] {
			return nil, fmt.Errorf("duplicate rule for program %q", rule.Program)
		}
		seen[rule.Program] = true
	}

	return file.Rules, nil
}

// LoadRules reads a JSONC rules file from disk and parses it.
func LoadRules(path string) ([]protocol.ProgramRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
