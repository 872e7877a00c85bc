package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/npratt/tminus/internal/countdown"
)

// keyMap holds the key bindings shown in the footer.
type keyMap struct {
	Start   key.Binding
	Pause   key.Binding
	Reset   key.Binding
	Edit    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s", "start"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "d"),
			key.WithHelp("e", "set duration"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "set"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// forPhase enables the bindings that can change the countdown in phase.
// Start reads "resume" while paused.
func (k keyMap) forPhase(phase countdown.Phase, remaining int) keyMap {
	startHelp := "start"
	if phase == countdown.PhasePaused {
		startHelp = "resume"
	}
	k.Start.SetHelp("s", startHelp)
	k.Start.SetEnabled(remaining > 0 && (phase == countdown.PhaseIdle || phase == countdown.PhasePaused))
	k.Pause.SetEnabled(phase == countdown.PhaseRunning)
	return k
}

// bindings returns the footer bindings for the current input mode.
func (k keyMap) bindings(editing bool) []key.Binding {
	if editing {
		return []key.Binding{k.Confirm, k.Cancel}
	}
	return []key.Binding{k.Start, k.Pause, k.Reset, k.Edit, k.Quit}
}
