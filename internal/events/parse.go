package events

import (
	"encoding/json"
	"fmt"
)

// eventEnvelope is used for initial JSON parsing to determine event type.
type eventEnvelope struct {
	Type EventType `json:"type"`
}

// ParseEvent parses one JSONL log line into a typed Event.
// Unknown event types return (nil, nil) so newer logs stay readable.
func ParseEvent(line []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, fmt.Errorf("parse event envelope: %w", err)
	}

	var ev Event
	switch envelope.Type {
	case EventTimerStart:
		ev = &TimerStartEvent{}
	case EventTimerStop:
		ev = &TimerStopEvent{}
	case EventDurationSet:
		ev = &DurationSetEvent{}
	case EventStarted:
		ev = &StartedEvent{}
	case EventPaused:
		ev = &PausedEvent{}
	case EventReset:
		ev = &ResetEvent{}
	case EventRestored:
		ev = &RestoredEvent{}
	case EventTick:
		ev = &TickEvent{}
	case EventFinished:
		ev = &FinishedEvent{}
	case EventStateChanged:
		ev = &StateChangedEvent{}
	case EventError:
		ev = &ErrorEvent{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, fmt.Errorf("parse %s event: %w", envelope.Type, err)
	}
	return ev, nil
}
