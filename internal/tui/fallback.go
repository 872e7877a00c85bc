package tui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/npratt/tminus/internal/events"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// runSimple provides line-by-line output for non-interactive environments.
// Tick events are always printed since there is no clock to watch otherwise.
// Exits when the channel closes or on interrupt signal.
func (t *TUI) runSimple() error {
	// Set up interrupt handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			if t.onQuit != nil {
				t.onQuit()
			}
			return nil
		case event, ok := <-t.eventChan:
			if !ok {
				// Channel closed, exit cleanly
				return nil
			}
			if line := simpleLine(event); line != "" {
				_, _ = fmt.Fprintln(t.out, line)
			}
		}
	}
}

// simpleLine formats an event as "HH:MM:SS text", or "" for events with
// nothing to show.
func simpleLine(event events.Event) string {
	text := events.Format(event)
	if text == "" {
		return ""
	}
	return event.Timestamp().Format("15:04:05") + " " + text
}
