// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package mixer

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// RulesWatcher watches the rules file for changes and coalesces them
// into a level-triggered signal the event loop polls between cycles.
//
// fsnotify delivers events on its own goroutine; the watcher forwards
// them into a one-slot channel so the loop thread observes "the file
// changed since the last reload" rather than a queue of raw events.
// Editors that write via rename, truncate-and-write, or atomic
// replace all collapse to the same signal.
type RulesWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  *slog.Logger
	changed chan struct{}
	done    chan struct{}
}

// NewRulesWatcher creates a watcher for the given rules file. The
// containing directory must exist; the file itself may not yet.
// Call Start to begin watching and Stop when done.
func NewRulesWatcher(path string, logger *slog.Logger) (*RulesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("mixer: creating rules watcher: %w", err)
	}

	return &RulesWatcher{
		watcher: watcher,
		path:    path,
		logger:  logger,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. The directory containing the file is watched
// rather than the file itself, so atomic-replace writes (which swap
// the inode) keep being observed.
func (w *RulesWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("mixer: watching %s: %w", filepath.Dir(w.path), err)
	}
	go w.run()
	return nil
}

// Changed returns the signal channel. A receive means the rules file
// has changed at least once since the previous receive.
func (w *RulesWatcher) Changed() <-chan struct{} {
	return w.changed
}

// Stop stops the watcher and releases its inotify resources.
func (w *RulesWatcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *RulesWatcher) run() {
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("rules file changed", "path", w.path, "op", event.Op.String())
				select {
				case w.changed <- struct{}{}:
				default:
					// A reload is already pending.
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rules watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}
