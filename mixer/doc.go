// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

// Package mixer implements the audio-control logic behind the daemon.
//
// Mixer is the daemon.Handler: it owns channel volume and mute state
// plus program-to-channel routing rules, applies the operations
// arriving over the socket, and hands the event loop a direct reply
// for the origin connection along with fan-out notifications for
// "volume" and "program" topic subscribers.
//
// State is written through to lib/statestore on every change, so a
// restarted daemon resumes with the last-set levels. Routing rules
// can additionally come from a JSONC rules file; a RulesWatcher
// converts filesystem change events into a signal the event loop
// drains during its housekeeping phase, keeping all mixer mutation on
// the loop thread.
//
// Every method of Mixer is called from the event loop thread only.
// Mixer holds no locks.
package mixer
