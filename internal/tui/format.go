package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/tminus/internal/events"
)

// glyphs are three-row block renderings of the characters a clock uses.
var glyphs = map[rune][3]string{
	'0': {"█▀█", "█ █", "▀▀▀"},
	'1': {"▀█ ", " █ ", "▀▀▀"},
	'2': {"▀▀█", "█▀▀", "▀▀▀"},
	'3': {"▀▀█", " ▀█", "▀▀▀"},
	'4': {"█ █", "▀▀█", "  ▀"},
	'5': {"█▀▀", "▀▀█", "▀▀▀"},
	'6': {"█▀▀", "█▀█", "▀▀▀"},
	'7': {"▀▀█", "  █", "  ▀"},
	'8': {"█▀█", "█▀█", "▀▀▀"},
	'9': {"█▀█", "▀▀█", "▀▀▀"},
	':': {" ", "▀", "▀"},
}

// bigClock renders text as three rows of block glyphs separated by one
// column. Characters without a glyph are drawn in the middle row.
func bigClock(text string) string {
	var rows [3][]string
	for _, r := range text {
		g, ok := glyphs[r]
		if !ok {
			s := string(r)
			pad := strings.Repeat(" ", lipgloss.Width(s))
			g = [3]string{pad, s, pad}
		}
		for i := range rows {
			rows[i] = append(rows[i], g[i])
		}
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, " ")
	}
	return strings.Join(lines, "\n")
}

// StyleForEvent returns the appropriate style for an event type.
func StyleForEvent(event events.Event) lipgloss.Style {
	if event == nil {
		return styles.Event
	}

	switch event.(type) {
	case *events.FinishedEvent:
		return styles.Finished
	case *events.TimerStartEvent, *events.TimerStopEvent, *events.RestoredEvent:
		return styles.Lifecycle
	case *events.ErrorEvent:
		return styles.Error
	default:
		return styles.Event
	}
}
