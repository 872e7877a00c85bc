package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/tminus/internal/countdown"
	"github.com/npratt/tminus/internal/events"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 500
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 100
	// syncInterval is the interval for re-reading the timer between events.
	syncInterval = 500 * time.Millisecond
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg signals a periodic sync with the timer.
type tickMsg time.Time

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// doTick creates a command that waits for the sync interval and sends a tickMsg.
func doTick() tea.Cmd {
	return tea.Tick(syncInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width-6)
		m.help.Width = max(10, msg.Width-4)
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		// Event channel closed - clean exit
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case tickMsg:
		m.sync()
		return m, doTick()

	default:
		if m.editing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, even while typing a duration
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.editing {
		return m.handleInputKey(msg)
	}

	keys := m.keys.forPhase(m.snap.Phase, m.snap.Seconds)

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Start):
		if m.timer != nil && !m.timer.Start() {
			slog.Debug("start ignored", "phase", m.snap.Phase)
		}
		m.sync()
		return m, nil

	case key.Matches(msg, keys.Pause):
		if m.timer != nil {
			m.timer.Pause()
		}
		m.sync()
		return m, nil

	case key.Matches(msg, keys.Reset):
		if m.timer != nil {
			m.timer.Reset()
		}
		m.sync()
		return m, nil

	case key.Matches(msg, keys.Edit):
		cmd := m.openInput()
		return m, cmd
	}

	return m, nil
}

// handleInputKey handles keys while the duration field has focus.
func (m model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		text := m.input.Value()
		seconds, ok := countdown.ParseDuration(text)
		if !ok {
			m.inputErr = fmt.Sprintf("invalid duration %q", text)
			return m, nil
		}
		if m.timer != nil {
			m.timer.SetDuration(seconds)
		}
		m.closeInput()
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.inputErr = ""
	return m, cmd
}

// quit runs the quit callback and ends the program.
func (m model) quit() (tea.Model, tea.Cmd) {
	if m.onQuit != nil {
		m.onQuit()
	}
	return m, tea.Quit
}

// handleEvent processes an event and updates model state.
func (m *model) handleEvent(event events.Event) {
	m.sync()

	if !m.cfg.ShowEvents {
		return
	}
	if events.IsNoisy(event) && !m.cfg.ShowTicks {
		return
	}

	text := events.Format(event)
	if text == "" {
		return
	}

	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})

	// Trim buffer if over max lines
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
	}
}
