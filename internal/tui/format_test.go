package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/tminus/internal/events"
)

func TestBigClock(t *testing.T) {
	tests := []struct {
		text      string
		wantWidth int
	}{
		{"00:00", 17},
		{"01:05", 17},
		{"100:00", 21},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := bigClock(tt.text)
			lines := strings.Split(got, "\n")
			if len(lines) != 3 {
				t.Fatalf("bigClock(%q) has %d rows, want 3", tt.text, len(lines))
			}
			for i, line := range lines {
				if w := lipgloss.Width(line); w != tt.wantWidth {
					t.Errorf("row %d width = %d, want %d", i, w, tt.wantWidth)
				}
			}
		})
	}
}

func TestBigClock_DistinctDigits(t *testing.T) {
	seen := make(map[string]rune)
	for _, r := range "0123456789" {
		g := bigClock(string(r))
		if prev, ok := seen[g]; ok {
			t.Errorf("digits %q and %q render identically", prev, r)
		}
		seen[g] = r
	}
}

func TestBigClock_UnknownRune(t *testing.T) {
	lines := strings.Split(bigClock("-"), "\n")
	if lines[1] != "-" {
		t.Errorf("middle row = %q, want %q", lines[1], "-")
	}
	if strings.TrimSpace(lines[0]) != "" || strings.TrimSpace(lines[2]) != "" {
		t.Errorf("outer rows = %q, %q, want blank", lines[0], lines[2])
	}
}

func TestStyleForEvent(t *testing.T) {
	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{"nil event", nil, styles.Event.Render("x")},
		{"finished", &events.FinishedEvent{}, styles.Finished.Render("x")},
		{"timer start", &events.TimerStartEvent{}, styles.Lifecycle.Render("x")},
		{"timer stop", &events.TimerStopEvent{}, styles.Lifecycle.Render("x")},
		{"restored", &events.RestoredEvent{}, styles.Lifecycle.Render("x")},
		{"error", &events.ErrorEvent{}, styles.Error.Render("x")},
		{"paused", &events.PausedEvent{}, styles.Event.Render("x")},
		{"tick", &events.TickEvent{}, styles.Event.Render("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := StyleForEvent(tt.event)
			if got := style.Render("x"); got != tt.want {
				t.Errorf("StyleForEvent() renders %q, want %q", got, tt.want)
			}
		})
	}
}
