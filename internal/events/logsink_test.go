package events

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLogSink(t *testing.T) {
	sink := NewLogSink("/tmp/test.log")
	if sink == nil {
		t.Fatal("NewLogSink returned nil")
	}
	if sink.path != "/tmp/test.log" {
		t.Errorf("path = %q, want %q", sink.path, "/tmp/test.log")
	}
	if sink.skipTicks {
		t.Error("skipTicks = true, want false by default")
	}
}

func TestLogSinkCreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "subdir", "nested", "test.log")

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}

	cancel()
	_ = sink.Stop()
}

func readLogLines(t *testing.T, path string) []Event {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var out []Event
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		ev, err := ParseEvent([]byte(line))
		if err != nil {
			t.Fatalf("line %d: ParseEvent: %v", i, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestLogSinkWritesJSONLines(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.log")

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	ctx, cancel := context.WithCancel(context.Background())

	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events <- &TimerStartEvent{BaseEvent: NewInternalEvent(EventTimerStart), Mode: "tui"}
	events <- &DurationSetEvent{BaseEvent: NewEngineEvent(EventDurationSet, "r1", time.Time{}), Seconds: 3}
	events <- tickEvent(2)

	time.Sleep(50 * time.Millisecond)
	cancel()
	_ = sink.Stop()

	got := readLogLines(t, path)
	want := []EventType{EventTimerStart, EventDurationSet, EventTick}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type() != want[i] {
			t.Errorf("line %d type = %s, want %s", i, got[i].Type(), want[i])
		}
	}
}

func TestLogSinkWithoutTicks(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.log")

	sink := NewLogSink(path, WithoutTicks())
	events := make(chan Event, 10)

	ctx, cancel := context.WithCancel(context.Background())

	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events <- tickEvent(2)
	events <- &PausedEvent{BaseEvent: NewEngineEvent(EventPaused, "r1", time.Time{}), Remaining: 2}
	events <- tickEvent(1)

	time.Sleep(50 * time.Millisecond)
	cancel()
	_ = sink.Stop()

	got := readLogLines(t, path)
	if len(got) != 1 || got[0].Type() != EventPaused {
		t.Errorf("got %v, want only %s", got, EventPaused)
	}
}

func TestLogSinkRotatesExistingFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.log")

	initial := `{"type":"timer.start","timestamp":"2024-01-01T00:00:00Z","source":"tminus"}` + "\n"
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		t.Fatalf("failed to write initial content: %v", err)
	}

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	ctx, cancel := context.WithCancel(context.Background())

	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events <- &TimerStopEvent{BaseEvent: NewInternalEvent(EventTimerStop), Reason: "test"}

	time.Sleep(50 * time.Millisecond)
	cancel()
	_ = sink.Stop()

	got := readLogLines(t, path)
	if len(got) != 1 || got[0].Type() != EventTimerStop {
		t.Errorf("new log = %v, want only %s", got, EventTimerStop)
	}

	backups, err := filepath.Glob(path + ".*.bak")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("found %d backups, want 1", len(backups))
	}
	data, err := os.ReadFile(backups[0])
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != initial {
		t.Errorf("backup content = %q, want %q", data, initial)
	}
}

func TestLogSinkDoesNotRotateEmptyFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sink := NewLogSink(path)
	events := make(chan Event)
	ctx, cancel := context.WithCancel(context.Background())
	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()
	_ = sink.Stop()

	backups, _ := filepath.Glob(path + ".*.bak")
	if len(backups) != 0 {
		t.Errorf("found %d backups, want 0", len(backups))
	}
}

func TestLogSinkDrainsBufferedEventsOnCancel(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.log")

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		events <- tickEvent(i)
	}

	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_ = sink.Stop()

	got := readLogLines(t, path)
	if len(got) != 3 {
		t.Errorf("got %d lines, want 3", len(got))
	}
}

func TestLogSinkHandlesClosedChannel(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.log")

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	if err := sink.Start(context.Background(), events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	close(events)

	done := make(chan struct{})
	go func() {
		_ = sink.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Stop timed out after channel close")
	}
}
