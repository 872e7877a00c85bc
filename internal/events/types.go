// Package events defines the event taxonomy for tminus and the plumbing that
// moves events from the countdown controller to the TUI, the JSONL log and
// the persisted state file.
package events

import "time"

// EventType identifies the category and nature of an event.
type EventType string

// Event types.
const (
	// Process lifecycle
	EventTimerStart EventType = "timer.start"
	EventTimerStop  EventType = "timer.stop"

	// Countdown operations
	EventDurationSet EventType = "countdown.duration_set"
	EventStarted     EventType = "countdown.started"
	EventPaused      EventType = "countdown.paused"
	EventReset       EventType = "countdown.reset"
	EventRestored    EventType = "countdown.restored"

	// Countdown progress
	EventTick         EventType = "countdown.tick"
	EventFinished     EventType = "countdown.finished"
	EventStateChanged EventType = "countdown.state_changed"

	// Errors
	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceEngine   = "engine"
	SourceInternal = "tminus"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
	RunID     string    `json:"run_id,omitempty"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// TimerStartEvent is emitted when the controller starts hosting a countdown.
type TimerStartEvent struct {
	BaseEvent
	Mode string `json:"mode"`
}

// TimerStopEvent is emitted when the controller shuts down.
// Dropped counts router deliveries skipped over the life of the process.
type TimerStopEvent struct {
	BaseEvent
	Reason  string `json:"reason,omitempty"`
	Dropped int64  `json:"dropped,omitempty"`
}

// DurationSetEvent is emitted when a new duration is configured.
// A new run begins with every configured duration.
type DurationSetEvent struct {
	BaseEvent
	Seconds int `json:"seconds"`
}

// StartedEvent is emitted when the countdown starts or resumes.
type StartedEvent struct {
	BaseEvent
	Remaining int  `json:"remaining"`
	Resumed   bool `json:"resumed,omitempty"`
}

// PausedEvent is emitted when a running countdown is paused.
type PausedEvent struct {
	BaseEvent
	Remaining int `json:"remaining"`
}

// ResetEvent is emitted when the countdown is reset to its configured duration.
type ResetEvent struct {
	BaseEvent
	Remaining int `json:"remaining"`
}

// RestoredEvent is emitted when persisted state is loaded into the engine.
type RestoredEvent struct {
	BaseEvent
	Phase      string `json:"phase"`
	Configured int    `json:"configured"`
	Remaining  int    `json:"remaining"`
}

// TickEvent is emitted once per accepted tick.
type TickEvent struct {
	BaseEvent
	Remaining int `json:"remaining"`
}

// FinishedEvent is emitted when the countdown reaches zero.
type FinishedEvent struct {
	BaseEvent
	Configured int `json:"configured"`
}

// StateChangedEvent is emitted whenever the countdown phase changes.
type StateChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// Severity constants for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ErrorEvent is emitted for any error condition.
type ErrorEvent struct {
	BaseEvent
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewEngineEvent creates a BaseEvent for a countdown transition in run runID.
func NewEngineEvent(eventType EventType, runID string, at time.Time) BaseEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return BaseEvent{
		EventType: eventType,
		Time:      at,
		Src:       SourceEngine,
		RunID:     runID,
	}
}

// NewInternalEvent creates a BaseEvent with tminus itself as the source.
func NewInternalEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceInternal)
}
