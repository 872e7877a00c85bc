package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/npratt/tminus/internal/countdown"
)

const (
	minWidth  = 30
	minHeight = 12

	// fixedRows is the height of everything except the event lines: border (2),
	// header (1), spacers (2), clock (3), progress (1), input (1), dividers (2),
	// footer (1).
	fixedRows = 13
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Handle too small terminal
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	w := safeWidth(m.width - 4) // Account for container borders and padding

	var sections []string
	sections = append(sections, m.renderHeader(w))
	sections = append(sections, "")
	sections = append(sections, m.renderClock(w))
	sections = append(sections, "")
	if m.cfg.ProgressBar {
		sections = append(sections, m.renderProgress(w))
	}
	sections = append(sections, m.renderInput(w))
	if visible := m.visibleLines(); visible > 0 {
		sections = append(sections, m.renderDivider(w))
		sections = append(sections, m.renderEvents(w, visible))
	}
	sections = append(sections, m.renderDivider(w))
	sections = append(sections, m.renderFooter())

	content := strings.Join(sections, "\n")

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Padding(0, 1).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderTooSmall renders a minimal message for terminals that are too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// renderHeader renders the title and the phase badge.
func (m model) renderHeader(w int) string {
	title := styles.Title.Render("tminus")
	badge := m.renderPhase()

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", max(1, w-lipgloss.Width(title)-lipgloss.Width(badge))),
		badge,
	)
}

// renderPhase renders the phase badge with appropriate styling.
func (m model) renderPhase() string {
	phase := m.snap.Phase
	if phase == "" {
		phase = countdown.PhaseIdle
	}

	var style lipgloss.Style
	switch phase {
	case countdown.PhaseRunning:
		style = styles.PhaseRunning
	case countdown.PhasePaused:
		style = styles.PhasePaused
	case countdown.PhaseFinished:
		style = styles.PhaseFinished
	default:
		style = styles.PhaseIdle
	}

	return style.Render(strings.ToUpper(string(phase)))
}

// renderClock renders the remaining time in large digits, centered.
func (m model) renderClock(w int) string {
	remaining := m.snap.Remaining
	if remaining == "" {
		remaining = countdown.Format(0)
	}

	var style lipgloss.Style
	switch m.snap.Phase {
	case countdown.PhasePaused:
		style = styles.ClockPaused
	case countdown.PhaseFinished:
		style = styles.ClockFinished
	case countdown.PhaseRunning:
		style = styles.Clock
	default:
		style = styles.Stats
	}

	big := bigClock(remaining)
	if lipgloss.Width(big) > w {
		// Narrow terminal: plain digits still fit
		big = "\n" + remaining + "\n"
	}
	return lipgloss.PlaceHorizontal(w, lipgloss.Center, style.Render(big))
}

// renderProgress renders elapsed time as a bar.
func (m model) renderProgress(w int) string {
	bar := m.progress
	bar.Width = w
	return bar.ViewAs(m.percentElapsed())
}

// renderInput renders the duration field while editing, or the configured
// duration otherwise.
func (m model) renderInput(w int) string {
	if m.editing {
		line := m.input.View()
		if m.inputErr != "" {
			line += "  " + styles.InputError.Render(m.inputErr)
		}
		return ansi.Truncate(line, w, "…")
	}

	text := "no duration set"
	if m.snap.Configured > 0 {
		text = "duration " + countdown.Format(m.snap.Configured)
	}
	return styles.Stats.Render(text)
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider(w int) string {
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderEvents renders the most recent event lines, oldest first.
func (m model) renderEvents(w, visible int) string {
	if len(m.eventLines) == 0 {
		lines := []string{styles.Stats.Render("No events yet")}
		for len(lines) < visible {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	start := max(0, len(m.eventLines)-visible)

	var lines []string
	for _, el := range m.eventLines[start:] {
		lines = append(lines, m.renderEventLine(el, w))
	}

	// Pad with empty lines if needed
	for len(lines) < visible {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// renderEventLine renders a single event with timestamp and styling.
func (m model) renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "

	textWidth := max(10, maxWidth-len(prefix))
	text := ansi.Truncate(el.Text, textWidth, "…")

	return styles.Timestamp.Render(prefix) + el.Style.Render(text)
}

// renderFooter renders keyboard shortcuts help text.
func (m model) renderFooter() string {
	keys := m.keys.forPhase(m.snap.Phase, m.snap.Seconds)
	return styles.Footer.Render(m.help.ShortHelpView(keys.bindings(m.editing)))
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}
