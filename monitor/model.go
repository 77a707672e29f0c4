// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fader-audio/fader/protocol"
)

// eventLogSize is how many recent routing events stay visible.
const eventLogSize = 5

// barWidth is the character width of a level bar.
const barWidth = 30

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Width(12)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// NotificationMsg delivers one daemon notification to the model.
type NotificationMsg protocol.Message

// StreamErrorMsg reports that the subscription stream failed. The
// monitor displays the error and exits on the next key press.
type StreamErrorMsg struct{ Err error }

// tickMsg refreshes relative timestamps once a second.
type tickMsg time.Time

// channelRow is the rendered state of one channel.
type channelRow struct {
	level   float64
	muted   bool
	changed time.Time
}

// routingEvent is one line of the recent-events log.
type routingEvent struct {
	text string
	at   time.Time
}

// Model is the bubbletea model for the live monitor.
type Model struct {
	events <-chan tea.Msg

	channels map[string]*channelRow
	log      []routingEvent
	width    int
	streamErr error
}

// NewModel creates a monitor model reading daemon notifications from
// events. Run constructs this from a live subscription; tests feed
// the channel directly.
func NewModel(events <-chan tea.Msg) Model {
	return Model{
		events:   events,
		channels: make(map[string]*channelRow),
	}
}

// Init starts the notification pump and the timestamp ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.nextEvent(), tick())
}

// nextEvent waits for one message from the stream goroutine.
func (m Model) nextEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case NotificationMsg:
		m.apply(protocol.Message(msg))
		return m, m.nextEvent()

	case StreamErrorMsg:
		m.streamErr = msg.Err
		return m, nil

	case tickMsg:
		// Nothing to mutate; relative times re-render from the clock.
		return m, tick()
	}
	return m, nil
}

// apply folds one notification into the display state.
func (m *Model) apply(msg protocol.Message) {
	switch msg.Kind {
	case protocol.KindVolume:
		row, ok := m.channels[msg.Target]
		if !ok {
			row = &channelRow{}
			m.channels[msg.Target] = row
		}
		row.level = msg.Level
		row.muted = msg.Muted
		row.changed = time.Now()

	case protocol.KindProgram:
		text := fmt.Sprintf("%s → %s", msg.Program, msg.Target)
		if msg.Cleared {
			text = fmt.Sprintf("%s cleared", msg.Program)
		}
		m.log = append(m.log, routingEvent{text: text, at: time.Now()})
		if len(m.log) > eventLogSize {
			m.log = m.log[len(m.log)-eventLogSize:]
		}
	}
}

// View renders the monitor.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fader — live channels"))
	b.WriteString("\n\n")

	if m.streamErr != nil {
		b.WriteString(errorStyle.Render("stream lost: " + m.streamErr.Error()))
		b.WriteString("\n\n")
	}

	if len(m.channels) == 0 {
		b.WriteString(mutedStyle.Render("waiting for volume changes..."))
		b.WriteString("\n")
	}

	for _, name := range m.sortedChannels() {
		row := m.channels[name]
		b.WriteString(labelStyle.Render(name))
		b.WriteString(renderBar(row))
		b.WriteString(fmt.Sprintf(" %3.0f%%", row.level*100))
		if row.muted {
			b.WriteString(mutedStyle.Render("  muted"))
		}
		b.WriteString(footerStyle.Render("  " + humanize.Time(row.changed)))
		b.WriteString("\n")
	}

	if len(m.log) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("routing"))
		b.WriteString("\n")
		for i := len(m.log) - 1; i >= 0; i-- {
			event := m.log[i]
			b.WriteString(fmt.Sprintf("  %s %s\n",
				event.text, footerStyle.Render(humanize.Time(event.at))))
		}
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) sortedChannels() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// renderBar draws a fixed-width level bar. Muted channels render dim
// so the retained level stays visible.
func renderBar(row *channelRow) string {
	filled := int(row.level*barWidth + 0.5)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	if row.muted {
		return mutedStyle.Render(bar)
	}
	return barStyle.Render(bar)
}
