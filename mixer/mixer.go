// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/fader-audio/fader/daemon"
	"github.com/fader-audio/fader/lib/config"
	"github.com/fader-audio/fader/lib/statestore"
	"github.com/fader-audio/fader/protocol"
)

// defaultLevel is the volume a channel starts at when it is first
// named by an operation.
const defaultLevel = 1.0

// channelState is one mixer channel. Level is retained while muted so
// unmute restores it.
type channelState struct {
	level float64
	muted bool
}

// Config holds the parameters for creating a Mixer.
type Config struct {
	// Logger receives operational messages. Required.
	Logger *slog.Logger

	// Store persists state across restarts. Nil disables persistence.
	Store *statestore.Store

	// RulesPath is the JSONC rules file applied at startup and on
	// change. Empty disables the rules file.
	RulesPath string

	// Watcher signals rules-file changes. Nil disables hot reload.
	// The caller owns Start/Stop; the mixer only drains Changed.
	Watcher *RulesWatcher
}

// Mixer is the daemon.Handler for audio control. All methods run on
// the event loop thread; see the package comment.
type Mixer struct {
	logger    *slog.Logger
	store     *statestore.Store
	watcher   *RulesWatcher
	rulesPath string

	channels map[string]*channelState
	rules    map[string]string
	clients  int
	started  time.Time
}

// New creates a Mixer, loading persisted state from the store (when
// configured) and applying the rules file on top of it.
func New(cfg Config) (*Mixer, error) {
	m := &Mixer{
		logger:    cfg.Logger,
		store:     cfg.Store,
		watcher:   cfg.Watcher,
		rulesPath: cfg.RulesPath,
		channels:  make(map[string]*channelState),
		rules:     make(map[string]string),
		started:   time.Now(),
	}

	if m.store != nil {
		ctx := context.Background()
		channels, err := m.store.LoadChannels(ctx)
		if err != nil {
			return nil, fmt.Errorf("mixer: %w", err)
		}
		for _, ch := range channels {
			m.channels[ch.Target] = &channelState{level: ch.Level, muted: ch.Muted}
		}
		rules, err := m.store.LoadProgramRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("mixer: %w", err)
		}
		for _, rule := range rules {
			m.rules[rule.Program] = rule.Target
		}
		m.logger.Info("mixer state loaded",
			"channels", len(m.channels),
			"rules", len(m.rules),
		)
	}

	if m.rulesPath != "" {
		rules, err := config.LoadRules(m.rulesPath)
		if err != nil {
			return nil, fmt.Errorf("mixer: %w", err)
		}
		for _, rule := range rules {
			m.setRule(rule.Program, rule.Target)
		}
	}

	return m, nil
}

// ConnectionAdded tracks the client count for status replies.
func (m *Mixer) ConnectionAdded(id daemon.ConnID) {
	m.clients++
}

// ConnectionRemoved tracks the client count for status replies.
func (m *Mixer) ConnectionRemoved(id daemon.ConnID) {
	m.clients--
}

// HandleMessage applies one client operation and returns the reply
// plus any fan-out notifications. The origin always gets exactly one
// direct reply; subscribers other than the origin get the
// notification form of state changes.
func (m *Mixer) HandleMessage(origin daemon.ConnID, msg protocol.Message, subs *daemon.Subscriptions) []daemon.Outbound {
	switch msg.Kind {
	case protocol.KindSetVolume:
		return m.handleVolumeChange(origin, msg.Target, subs, func(ch *channelState) {
			ch.level = clampLevel(msg.Level)
		})

	case protocol.KindAdjustVolume:
		return m.handleVolumeChange(origin, msg.Target, subs, func(ch *channelState) {
			ch.level = clampLevel(ch.level + msg.Delta)
		})

	case protocol.KindSetMute:
		return m.handleVolumeChange(origin, msg.Target, subs, func(ch *channelState) {
			ch.muted = msg.Muted
		})

	case protocol.KindGetVolume:
		if msg.Target == "" {
			return reply(origin, protocol.Errorf("get-volume: target is required"))
		}
		ch, ok := m.channels[msg.Target]
		if !ok {
			return reply(origin, protocol.Errorf("unknown channel %q", msg.Target))
		}
		return reply(origin, volumeMessage(msg.Target, ch))

	case protocol.KindSetProgram:
		if msg.Program == "" || msg.Target == "" {
			return reply(origin, protocol.Errorf("set-program: program and target are required"))
		}
		m.setRule(msg.Program, msg.Target)
		notification := protocol.Message{
			Kind:    protocol.KindProgram,
			Program: msg.Program,
			Target:  msg.Target,
		}
		return m.replyAndFanOut(origin, subs, protocol.TopicProgram, notification)

	case protocol.KindClearProgram:
		if msg.Program == "" {
			return reply(origin, protocol.Errorf("clear-program: program is required"))
		}
		notification := protocol.Message{
			Kind:    protocol.KindProgram,
			Program: msg.Program,
			Cleared: true,
		}
		if _, exists := m.rules[msg.Program]; !exists {
			// Clearing an absent rule is a no-op, and nothing changed
			// that subscribers need to hear about.
			return reply(origin, notification)
		}
		m.clearRule(msg.Program)
		return m.replyAndFanOut(origin, subs, protocol.TopicProgram, notification)

	case protocol.KindListPrograms:
		return reply(origin, protocol.Message{
			Kind:  protocol.KindProgramList,
			Rules: m.sortedRules(),
		})

	case protocol.KindSubscribe:
		if !protocol.KnownTopic(msg.Topic) {
			return reply(origin, protocol.Errorf("unknown topic %q", msg.Topic))
		}
		subs.Subscribe(msg.Topic, origin)
		return reply(origin, protocol.Message{Kind: protocol.KindAck})

	case protocol.KindUnsubscribe:
		subs.Unsubscribe(msg.Topic, origin)
		return reply(origin, protocol.Message{Kind: protocol.KindAck})

	case protocol.KindStatus:
		return reply(origin, protocol.Message{
			Kind:          protocol.KindStatusReply,
			UptimeSeconds: int64(time.Since(m.started).Seconds()),
			Clients:       m.clients,
			Subscriptions: subs.Counts(),
		})

	default:
		return reply(origin, protocol.Errorf("unknown kind %q", msg.Kind))
	}
}

// Housekeep drains the rules watcher. When the rules file changed,
// it is reloaded and the resulting rule changes are broadcast to
// "program" subscribers. A reload that fails to parse keeps the
// current rules; the broken file is logged and ignored until the next
// change.
func (m *Mixer) Housekeep(subs *daemon.Subscriptions) []daemon.Outbound {
	if m.watcher == nil {
		return nil
	}
	select {
	case <-m.watcher.Changed():
	default:
		return nil
	}

	rules, err := config.LoadRules(m.rulesPath)
	if err != nil {
		m.logger.Warn("rules reload failed, keeping current rules", "error", err)
		return nil
	}

	var outbound []daemon.Outbound
	changed := 0
	for _, rule := range rules {
		if m.rules[rule.Program] == rule.Target {
			continue
		}
		m.setRule(rule.Program, rule.Target)
		changed++
		notification := protocol.Message{
			Kind:    protocol.KindProgram,
			Program: rule.Program,
			Target:  rule.Target,
		}
		for _, subscriber := range subs.Subscribers(protocol.TopicProgram) {
			outbound = append(outbound, daemon.Outbound{To: subscriber, Msg: notification})
		}
	}

	m.logger.Info("rules file reloaded",
		"path", m.rulesPath,
		"rules", len(rules),
		"changed", changed,
	)
	return outbound
}

// handleVolumeChange applies apply to the named channel (creating it
// at the default level on first reference), persists it, and returns
// the reply plus volume-topic fan-out.
func (m *Mixer) handleVolumeChange(origin daemon.ConnID, target string, subs *daemon.Subscriptions, apply func(*channelState)) []daemon.Outbound {
	if target == "" {
		return reply(origin, protocol.Errorf("target is required"))
	}

	ch, ok := m.channels[target]
	if !ok {
		ch = &channelState{level: defaultLevel}
		m.channels[target] = ch
	}
	apply(ch)
	m.persistChannel(target, ch)

	return m.replyAndFanOut(origin, subs, protocol.TopicVolume, volumeMessage(target, ch))
}

// replyAndFanOut sends msg to the origin and to every topic
// subscriber except the origin, which would otherwise hear the same
// change twice.
func (m *Mixer) replyAndFanOut(origin daemon.ConnID, subs *daemon.Subscriptions, topic string, msg protocol.Message) []daemon.Outbound {
	outbound := reply(origin, msg)
	for _, subscriber := range subs.Subscribers(topic) {
		if subscriber != origin {
			outbound = append(outbound, daemon.Outbound{To: subscriber, Msg: msg})
		}
	}
	return outbound
}

// setRule binds program to target in memory and in the store.
func (m *Mixer) setRule(program, target string) {
	m.rules[program] = target
	if m.store != nil {
		if err := m.store.SaveProgramRule(context.Background(), program, target); err != nil {
			m.logger.Warn("rule persist failed", "program", program, "error", err)
		}
	}
}

// clearRule removes program's rule in memory and in the store.
func (m *Mixer) clearRule(program string) {
	delete(m.rules, program)
	if m.store != nil {
		if err := m.store.DeleteProgramRule(context.Background(), program); err != nil {
			m.logger.Warn("rule delete failed", "program", program, "error", err)
		}
	}
}

// persistChannel writes a channel's state through to the store.
// Persistence failures are logged, not fatal: the in-memory state is
// authoritative for the running daemon.
func (m *Mixer) persistChannel(target string, ch *channelState) {
	if m.store == nil {
		return
	}
	err := m.store.SaveChannel(context.Background(), statestore.ChannelState{
		Target: target,
		Level:  ch.level,
		Muted:  ch.muted,
	})
	if err != nil {
		m.logger.Warn("channel persist failed", "target", target, "error", err)
	}
}

// sortedRules returns the routing rules sorted by program name.
func (m *Mixer) sortedRules() []protocol.ProgramRule {
	rules := make([]protocol.ProgramRule, 0, len(m.rules))
	for program, target := range m.rules {
		rules = append(rules, protocol.ProgramRule{Program: program, Target: target})
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Program < rules[j].Program
	})
	return rules
}

func volumeMessage(target string, ch *channelState) protocol.Message {
	return protocol.Message{
		Kind:   protocol.KindVolume,
		Target: target,
		Level:  ch.level,
		Muted:  ch.muted,
	}
}

func reply(origin daemon.ConnID, msg protocol.Message) []daemon.Outbound {
	return []daemon.Outbound{{To: origin, Msg: msg}}
}

// clampLevel bounds a level to [0, 1]. NaN (possible from arbitrary
// wire input) clamps to 0.
func clampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return 0
	}
	return math.Min(1, math.Max(0, level))
}
