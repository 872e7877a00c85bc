package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title lipgloss.Style
	Stats lipgloss.Style

	// Clock styles
	Clock         lipgloss.Style
	ClockPaused   lipgloss.Style
	ClockFinished lipgloss.Style

	// Input styles
	Prompt     lipgloss.Style
	InputError lipgloss.Style

	// Footer style
	Footer lipgloss.Style

	// Event styles
	Timestamp lipgloss.Style
	Event     lipgloss.Style
	Lifecycle lipgloss.Style
	Finished  lipgloss.Style
	Error     lipgloss.Style

	// Phase badges
	PhaseIdle     lipgloss.Style
	PhaseRunning  lipgloss.Style
	PhasePaused   lipgloss.Style
	PhaseFinished lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Stats: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Clock: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	ClockPaused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	ClockFinished: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196")),

	Prompt: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	InputError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Timestamp: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Event: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Lifecycle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Finished: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	PhaseIdle: lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("245")),

	PhaseRunning: lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("82")),

	PhasePaused: lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214")),

	PhaseFinished: lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("196")),
}
