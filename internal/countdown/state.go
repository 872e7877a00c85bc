// Package countdown implements the countdown engine: a remaining-seconds value
// that decreases once per interval while running, with start, pause, reset
// and set-duration operations.
//
// The transition rules live on State as pure functions. Engine wraps a State
// with an owned tick handle obtained from an injected Scheduler.
package countdown

// Phase is the lifecycle phase of a countdown.
type Phase string

// Countdown phases.
const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhasePaused   Phase = "paused"
	PhaseFinished Phase = "finished"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseRunning, PhasePaused, PhaseFinished:
		return true
	default:
		return false
	}
}

// State is the value of a countdown. All transitions are pure: they return
// the next state and whether the operation was accepted. A rejected
// operation returns the receiver unchanged.
type State struct {
	Configured int   `json:"configured"`
	Remaining  int   `json:"remaining"`
	Phase      Phase `json:"phase"`
}

// NewState returns the initial state: idle with nothing configured.
func NewState() State {
	return State{Phase: PhaseIdle}
}

// SetDuration configures a new duration and returns to idle.
// Non-positive seconds are ignored.
func (s State) SetDuration(seconds int) (State, bool) {
	if seconds <= 0 {
		return s, false
	}
	return State{Configured: seconds, Remaining: seconds, Phase: PhaseIdle}, true
}

// Start begins counting down. Only accepted from idle or paused with time left.
func (s State) Start() (State, bool) {
	if s.Remaining <= 0 {
		return s, false
	}
	if s.Phase != PhaseIdle && s.Phase != PhasePaused {
		return s, false
	}
	s.Phase = PhaseRunning
	return s, true
}

// Pause stops counting. Only accepted while running.
func (s State) Pause() (State, bool) {
	if s.Phase != PhaseRunning {
		return s, false
	}
	s.Phase = PhasePaused
	return s, true
}

// Reset restores the configured duration and returns to idle from any phase.
func (s State) Reset() State {
	return State{Configured: s.Configured, Remaining: s.Configured, Phase: PhaseIdle}
}

// Tick removes one second. It is only accepted while running; the tick that
// brings Remaining to zero moves the countdown to finished.
func (s State) Tick() (State, bool) {
	if s.Phase != PhaseRunning {
		return s, false
	}
	s.Remaining--
	if s.Remaining <= 0 {
		s.Remaining = 0
		s.Phase = PhaseFinished
	}
	return s, true
}

// Normalize repairs a state loaded from outside the engine so that it
// satisfies the invariants. A running state becomes paused since no tick
// handle can be carried with it.
func (s State) Normalize() State {
	if s.Configured < 0 {
		s.Configured = 0
	}
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	if s.Remaining > s.Configured {
		s.Remaining = s.Configured
	}
	if !s.Phase.Valid() {
		s.Phase = PhaseIdle
	}
	if s.Phase == PhaseRunning {
		s.Phase = PhasePaused
	}
	if s.Remaining == 0 && s.Phase == PhasePaused {
		s.Phase = PhaseFinished
	}
	if s.Phase == PhaseFinished {
		s.Remaining = 0
	}
	return s
}

// Snapshot is the read-only projection handed to presentation layers.
type Snapshot struct {
	Remaining  string `json:"remaining"`
	Seconds    int    `json:"seconds"`
	Configured int    `json:"configured"`
	Phase      Phase  `json:"phase"`
}

// Snapshot projects s for display.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Remaining:  Format(s.Remaining),
		Seconds:    s.Remaining,
		Configured: s.Configured,
		Phase:      s.Phase,
	}
}
