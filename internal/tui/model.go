package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/countdown"
	"github.com/npratt/tminus/internal/events"
)

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// model is the bubbletea model for the TUI.
type model struct {
	// Event source
	eventChan <-chan events.Event

	// Countdown
	timer Timer
	snap  countdown.Snapshot

	// Event log
	eventLines []eventLine

	// Duration entry
	editing  bool
	input    textinput.Model
	inputErr string

	// Widgets
	progress progress.Model
	keys     keyMap
	help     help.Model

	// UI state
	width  int
	height int
	cfg    config.TUIConfig

	// Callbacks
	onQuit func()
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// newModel creates a new model with the given configuration. A countdown with
// nothing configured opens the duration field straight away.
func newModel(eventChan <-chan events.Event, timer Timer, onQuit func(), cfg config.TUIConfig) model {
	ti := textinput.New()
	ti.Placeholder = "25m, 90, 1:30"
	ti.Prompt = "duration: "
	ti.PromptStyle = styles.Prompt
	ti.CharLimit = 16
	ti.Width = 20

	m := model{
		eventChan: eventChan,
		timer:     timer,
		input:     ti,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		keys:      defaultKeyMap(),
		help:      help.New(),
		cfg:       cfg,
		onQuit:    onQuit,
		snap:      countdown.NewState().Snapshot(),
	}
	m.sync()
	if m.snap.Configured == 0 {
		m.openInput()
	}
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForEvent(m.eventChan),
		doTick(),
		tea.EnterAltScreen,
	}
	if m.editing {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update, handleKey, handleEvent are implemented in update.go
// View is implemented in view.go

// sync refreshes the snapshot from the timer.
func (m *model) sync() {
	if m.timer == nil {
		return
	}
	m.snap = m.timer.Snapshot()
}

// openInput focuses the duration field.
func (m *model) openInput() tea.Cmd {
	m.editing = true
	m.inputErr = ""
	m.input.SetValue("")
	return m.input.Focus()
}

// closeInput leaves duration entry.
func (m *model) closeInput() {
	m.editing = false
	m.inputErr = ""
	m.input.Blur()
	m.input.SetValue("")
}

// percentElapsed returns the share of the configured duration already counted.
func (m model) percentElapsed() float64 {
	if m.snap.Configured <= 0 {
		return 0
	}
	elapsed := m.snap.Configured - m.snap.Seconds
	return float64(elapsed) / float64(m.snap.Configured)
}

// visibleLines returns the number of event lines that fit in the viewport.
func (m model) visibleLines() int {
	if !m.cfg.ShowEvents {
		return 0
	}
	return max(0, min(m.cfg.EventLines, m.height-fixedRows))
}
