package events

import (
	"fmt"
	"strings"

	"github.com/npratt/tminus/internal/countdown"
)

// Format converts an event to a one-line human-readable string.
// Returns empty string for nil or unknown event types.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *TimerStartEvent:
		if e.Mode == "" {
			return "timer started"
		}
		return fmt.Sprintf("timer started (%s)", e.Mode)
	case *TimerStopEvent:
		text := "timer stopped"
		if e.Reason != "" {
			text += ": " + e.Reason
		}
		if e.Dropped > 0 {
			text += fmt.Sprintf(" (%d events dropped)", e.Dropped)
		}
		return text
	case *DurationSetEvent:
		return fmt.Sprintf("duration set to %s", countdown.Format(e.Seconds))
	case *StartedEvent:
		if e.Resumed {
			return fmt.Sprintf("resumed at %s", countdown.Format(e.Remaining))
		}
		return fmt.Sprintf("started at %s", countdown.Format(e.Remaining))
	case *PausedEvent:
		return fmt.Sprintf("paused at %s", countdown.Format(e.Remaining))
	case *ResetEvent:
		return fmt.Sprintf("reset to %s", countdown.Format(e.Remaining))
	case *RestoredEvent:
		return fmt.Sprintf("restored %s at %s", e.Phase, countdown.Format(e.Remaining))
	case *TickEvent:
		return countdown.Format(e.Remaining)
	case *FinishedEvent:
		return fmt.Sprintf("finished (%s elapsed)", countdown.Format(e.Configured))
	case *StateChangedEvent:
		return fmt.Sprintf("%s -> %s", e.From, e.To)
	case *ErrorEvent:
		return formatError(e)
	default:
		return ""
	}
}

func formatError(e *ErrorEvent) string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "(no message)"
	}
	if e.Severity == SeverityWarning {
		return "warning: " + msg
	}
	return "error: " + msg
}

// IsNoisy reports whether an event is high-frequency progress that views
// may choose to hide.
func IsNoisy(event Event) bool {
	if event == nil {
		return false
	}
	return event.Type() == EventTick
}
