package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/npratt/tminus/internal/events"
)

func TestIsTerminal_ReturnsBoolean(t *testing.T) {
	// The actual value depends on how the test is run
	_ = isTerminal()
}

func TestRunSimple_ExitsOnChannelClose(t *testing.T) {
	eventChan := make(chan events.Event)
	var buf bytes.Buffer
	tui := New(eventChan, nil, WithPlainOutput(&buf))

	done := make(chan error, 1)
	go func() {
		done <- tui.Run()
	}()

	close(eventChan)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after channel close")
	}
}

func TestRunSimple_FormatsEvents(t *testing.T) {
	eventChan := make(chan events.Event, 3)
	var buf bytes.Buffer
	tui := New(eventChan, nil, WithPlainOutput(&buf))

	at := time.Date(2024, 1, 15, 9, 0, 5, 0, time.Local)
	eventChan <- &events.StartedEvent{
		BaseEvent: events.NewEngineEvent(events.EventStarted, "r", at),
		Remaining: 90,
	}
	eventChan <- &events.TickEvent{
		BaseEvent: events.NewEngineEvent(events.EventTick, "r", at.Add(time.Second)),
		Remaining: 89,
	}
	eventChan <- &events.BaseEvent{EventType: "unknown", Time: at}
	close(eventChan)

	if err := tui.runSimple(); err != nil {
		t.Fatalf("runSimple returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"09:00:05 started at 01:30", "09:00:06 01:29"}
	if len(lines) != len(want) {
		t.Fatalf("output = %q, want %d lines", buf.String(), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSimpleLine_Empty(t *testing.T) {
	if got := simpleLine(&events.BaseEvent{EventType: "unknown"}); got != "" {
		t.Errorf("simpleLine() = %q, want empty", got)
	}
}
