// Package tui provides a terminal UI for driving a tminus countdown using bubbletea.
package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/countdown"
	"github.com/npratt/tminus/internal/events"
)

// Timer is the countdown the TUI controls.
type Timer interface {
	SetDuration(seconds int) bool
	Start() bool
	Pause() bool
	Reset() bool
	Snapshot() countdown.Snapshot
}

// TUI is the terminal UI for a countdown.
type TUI struct {
	eventChan <-chan events.Event
	timer     Timer
	onQuit    func()
	cfg       config.TUIConfig
	plain     bool
	out       io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI reading events from eventChan and controlling timer.
func New(eventChan <-chan events.Event, timer Timer, opts ...Option) *TUI {
	t := &TUI{
		eventChan: eventChan,
		timer:     timer,
		cfg:       config.Default().TUI,
		out:       os.Stdout,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithConfig sets the display settings.
func WithConfig(cfg config.TUIConfig) Option {
	return func(t *TUI) {
		t.cfg = cfg
	}
}

// WithPlainOutput forces line-by-line output even on a terminal.
func WithPlainOutput(w io.Writer) Option {
	return func(t *TUI) {
		t.plain = true
		if w != nil {
			t.out = w
		}
	}
}

// Run starts the TUI and blocks until it exits. Without a terminal, or with
// plain output requested, events are printed one per line instead.
func (t *TUI) Run() error {
	if t.plain || !isTerminal() {
		return t.runSimple()
	}

	m := newModel(t.eventChan, t.timer, t.onQuit, t.cfg)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
