package countdown

import (
	"sync"
	"time"
)

// DefaultInterval is the time between ticks.
const DefaultInterval = time.Second

// Op names the operation that produced a Change.
type Op string

// Engine operations.
const (
	OpSetDuration Op = "set_duration"
	OpStart       Op = "start"
	OpPause       Op = "pause"
	OpReset       Op = "reset"
	OpTick        Op = "tick"
	OpRestore     Op = "restore"
	OpClose       Op = "close"
)

// Change describes one accepted transition.
type Change struct {
	Op     Op
	Before State
	After  State
	At     time.Time
}

// PhaseChanged reports whether the transition moved to a different phase.
func (c Change) PhaseChanged() bool {
	return c.Before.Phase != c.After.Phase
}

// Listener receives every accepted transition in commit order. It runs
// without the engine lock held, on whichever goroutine is delivering
// (a caller or the scheduler), so it may read State or call other methods.
type Listener func(Change)

// Engine is a countdown with an owned tick handle. The handle is held exactly
// while the phase is running and released on every transition out of it,
// including Close.
type Engine struct {
	mu        sync.Mutex
	state     State
	handle    Handle
	gen       uint64
	closed    bool
	scheduler Scheduler
	interval  time.Duration
	now       func() time.Time
	listener  Listener

	pending  []Change
	draining bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the timer source. Defaults to TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithInterval sets the tick interval. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithListener sets the change listener.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithClock sets the function used to timestamp changes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		state:     NewState(),
		scheduler: TickerScheduler{},
		interval:  DefaultInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetDuration configures seconds and returns to idle, releasing any handle.
// Non-positive seconds are ignored.
func (e *Engine) SetDuration(seconds int) bool {
	return e.apply(OpSetDuration, func(s State) (State, bool) {
		return s.SetDuration(seconds)
	})
}

// Start begins ticking when there is time remaining.
func (e *Engine) Start() bool {
	return e.apply(OpStart, State.Start)
}

// Pause stops ticking while running.
func (e *Engine) Pause() bool {
	return e.apply(OpPause, State.Pause)
}

// Reset restores the configured duration from any phase.
func (e *Engine) Reset() bool {
	return e.apply(OpReset, func(s State) (State, bool) {
		return s.Reset(), true
	})
}

// Restore replaces the state with a normalized copy of s. It is meant for
// reloading persisted state before the engine is used.
func (e *Engine) Restore(s State) bool {
	return e.apply(OpRestore, func(State) (State, bool) {
		return s.Normalize(), true
	})
}

// Close releases the tick handle and disables further operations. A running
// countdown is left paused. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	before := e.state
	after := before
	if after.Phase == PhaseRunning {
		after.Phase = PhasePaused
	}
	e.commitLocked(after)
	e.closed = true
	e.notifyAndUnlock(Change{Op: OpClose, Before: before, After: after, At: e.now()})
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the display projection of the current state.
func (e *Engine) Snapshot() Snapshot {
	return e.State().Snapshot()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// apply runs a transition and, when accepted, commits it and notifies.
func (e *Engine) apply(op Op, fn func(State) (State, bool)) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	before := e.state
	after, ok := fn(before)
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.commitLocked(after)
	e.notifyAndUnlock(Change{Op: op, Before: before, After: after, At: e.now()})
	return true
}

// tick is the scheduler callback. Ticks from a handle that is no longer the
// current one are dropped.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen || e.handle == nil {
		e.mu.Unlock()
		return
	}
	before := e.state
	after, ok := before.Tick()
	if !ok {
		e.mu.Unlock()
		return
	}
	e.commitLocked(after)
	e.notifyAndUnlock(Change{Op: OpTick, Before: before, After: after, At: e.now()})
}

// commitLocked stores next and reconciles the tick handle with its phase.
// Every commit releases the current handle unless the countdown stays
// running, so a fresh handle is only acquired after the old one is gone.
func (e *Engine) commitLocked(next State) {
	prev := e.state
	e.state = next

	stayRunning := prev.Phase == PhaseRunning && next.Phase == PhaseRunning
	if stayRunning && e.handle != nil {
		return
	}
	e.releaseLocked()
	if next.Phase == PhaseRunning {
		e.acquireLocked()
	}
}

func (e *Engine) acquireLocked() {
	e.gen++
	gen := e.gen
	e.handle = e.scheduler.Every(e.interval, func() {
		e.tick(gen)
	})
}

func (e *Engine) releaseLocked() {
	if e.handle == nil {
		return
	}
	h := e.handle
	e.handle = nil
	e.gen++
	h.Stop()
}

// notifyAndUnlock queues c and delivers queued changes unless another
// goroutine is already delivering, in which case that goroutine picks c up.
func (e *Engine) notifyAndUnlock(c Change) {
	if e.listener == nil {
		e.mu.Unlock()
		return
	}
	e.pending = append(e.pending, c)
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	for {
		batch := e.pending
		e.pending = nil
		if len(batch) == 0 {
			e.draining = false
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		for _, ch := range batch {
			e.listener(ch)
		}
		e.mu.Lock()
	}
}
