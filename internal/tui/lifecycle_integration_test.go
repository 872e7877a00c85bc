package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/countdown"
	"github.com/npratt/tminus/internal/events"
)

// TestTUILifecycleSmoke verifies the full bubbletea program lifecycle:
// start, receive events, handle keyboard input, and quit cleanly.
// This test uses teatest to run the TUI headlessly without a real TTY.
func TestTUILifecycleSmoke(t *testing.T) {
	eventChan := make(chan events.Event, 10)
	eventChan <- &events.TimerStartEvent{
		BaseEvent: events.NewInternalEvent(events.EventTimerStart),
		Mode:      "tui",
	}

	timer := newFakeTimer(90)
	var quitCalled bool
	m := newModel(eventChan, timer, func() { quitCalled = true }, config.Default().TUI)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("timer started"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil")
	}

	if !quitCalled {
		t.Error("quit callback was not invoked")
	}

	final, ok := fm.(model)
	if !ok {
		t.Fatalf("FinalModel is not of type model: %T", fm)
	}
	if final.snap.Phase != countdown.PhasePaused {
		t.Errorf("final phase = %q, want paused", final.snap.Phase)
	}

	close(eventChan)
}

// TestTUILifecycleSetDuration types a duration into the field that opens
// when nothing is configured.
func TestTUILifecycleSetDuration(t *testing.T) {
	eventChan := make(chan events.Event, 10)
	timer := newFakeTimer(0)
	m := newModel(eventChan, timer, nil, config.Default().TUI)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Type("2m")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("duration 02:00"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))

	if got := timer.Snapshot(); got.Configured != 120 {
		t.Errorf("Configured = %d, want 120", got.Configured)
	}
	close(eventChan)
}

// TestTUILifecycleChannelClose verifies that closing the event channel
// causes the TUI to exit gracefully.
func TestTUILifecycleChannelClose(t *testing.T) {
	eventChan := make(chan events.Event, 10)
	m := newModel(eventChan, newFakeTimer(10), nil, config.Default().TUI)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	close(eventChan)

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil after channel close")
	}

	out := new(bytes.Buffer)
	_, _ = out.ReadFrom(tm.FinalOutput(t))
	if !strings.Contains(out.String(), "IDLE") {
		t.Error("expected idle badge in output")
	}
}
