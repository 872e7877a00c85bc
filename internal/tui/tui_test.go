package tui

import (
	"bytes"
	"sync"
	"testing"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/countdown"
	"github.com/npratt/tminus/internal/events"
)

// fakeTimer is a Timer backed by the pure countdown transitions. Ticks are
// applied with tick so tests control time directly.
type fakeTimer struct {
	mu    sync.Mutex
	state countdown.State
	calls []string
}

func newFakeTimer(seconds int) *fakeTimer {
	ft := &fakeTimer{state: countdown.NewState()}
	if seconds > 0 {
		ft.state, _ = ft.state.SetDuration(seconds)
	}
	return ft
}

func (f *fakeTimer) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeTimer) SetDuration(seconds int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set")
	var ok bool
	f.state, ok = f.state.SetDuration(seconds)
	return ok
}

func (f *fakeTimer) Start() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("start")
	var ok bool
	f.state, ok = f.state.Start()
	return ok
}

func (f *fakeTimer) Pause() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pause")
	var ok bool
	f.state, ok = f.state.Pause()
	return ok
}

func (f *fakeTimer) Reset() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reset")
	f.state = f.state.Reset()
	return true
}

func (f *fakeTimer) Snapshot() countdown.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Snapshot()
}

func (f *fakeTimer) tick(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.state, _ = f.state.Tick()
	}
}

func (f *fakeTimer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestNew_AppliesOptions(t *testing.T) {
	eventChan := make(chan events.Event)
	timer := newFakeTimer(10)
	quitCalled := false
	cfg := config.TUIConfig{ShowEvents: true, EventLines: 3}
	var buf bytes.Buffer

	tui := New(eventChan, timer,
		WithOnQuit(func() { quitCalled = true }),
		WithConfig(cfg),
		WithPlainOutput(&buf),
	)

	if tui.eventChan != eventChan {
		t.Error("eventChan not set")
	}
	if tui.timer != timer {
		t.Error("timer not set")
	}
	if tui.cfg != cfg {
		t.Errorf("cfg = %+v, want %+v", tui.cfg, cfg)
	}
	if !tui.plain {
		t.Error("plain output not set")
	}
	if tui.out != &buf {
		t.Error("output writer not set")
	}
	if tui.onQuit == nil {
		t.Fatal("onQuit not set")
	}

	tui.onQuit()
	if !quitCalled {
		t.Error("onQuit callback not invoked")
	}
}

func TestNew_Defaults(t *testing.T) {
	tui := New(make(chan events.Event), nil)

	if tui.cfg != config.Default().TUI {
		t.Errorf("cfg = %+v, want defaults", tui.cfg)
	}
	if tui.plain {
		t.Error("plain output enabled by default")
	}
	if tui.out == nil {
		t.Error("out is nil, want stdout")
	}
}

func TestNewModel_OpensInputWhenUnconfigured(t *testing.T) {
	m := newModel(make(chan events.Event), newFakeTimer(0), nil, config.Default().TUI)
	if !m.editing {
		t.Error("editing = false, want duration field open with nothing configured")
	}

	m = newModel(make(chan events.Event), newFakeTimer(30), nil, config.Default().TUI)
	if m.editing {
		t.Error("editing = true, want closed with a configured duration")
	}
	if m.snap.Remaining != "00:30" {
		t.Errorf("snap.Remaining = %q, want %q", m.snap.Remaining, "00:30")
	}
}

func TestPercentElapsed(t *testing.T) {
	timer := newFakeTimer(10)
	m := newModel(make(chan events.Event), timer, nil, config.Default().TUI)

	if got := m.percentElapsed(); got != 0 {
		t.Errorf("percentElapsed() = %v, want 0", got)
	}

	timer.Start()
	timer.tick(4)
	m.sync()
	if got := m.percentElapsed(); got != 0.4 {
		t.Errorf("percentElapsed() = %v, want 0.4", got)
	}

	m.snap = countdown.Snapshot{}
	if got := m.percentElapsed(); got != 0 {
		t.Errorf("percentElapsed() with nothing configured = %v, want 0", got)
	}
}

func TestVisibleLines(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.TUIConfig
		height int
		want   int
	}{
		{"events hidden", config.TUIConfig{ShowEvents: false, EventLines: 6}, 40, 0},
		{"room for all", config.TUIConfig{ShowEvents: true, EventLines: 6}, 40, 6},
		{"clipped by height", config.TUIConfig{ShowEvents: true, EventLines: 6}, fixedRows + 2, 2},
		{"no room", config.TUIConfig{ShowEvents: true, EventLines: 6}, fixedRows - 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model{cfg: tt.cfg, height: tt.height}
			if got := m.visibleLines(); got != tt.want {
				t.Errorf("visibleLines() = %d, want %d", got, tt.want)
			}
		})
	}
}
