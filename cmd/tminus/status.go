package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/daemon"
	"github.com/npratt/tminus/internal/events"
)

// savedStatus builds a status from the state file for when no tminus
// process is running.
func savedStatus(statePath string) (*daemon.StatusResponse, error) {
	saved, err := events.ReadState(statePath)
	if err != nil {
		return nil, fmt.Errorf("no running countdown and no saved state: %w", err)
	}

	snap := saved.Countdown().Snapshot()
	return &daemon.StatusResponse{
		Running:    false,
		Phase:      string(snap.Phase),
		Remaining:  snap.Remaining,
		Seconds:    snap.Seconds,
		Configured: snap.Configured,
		Stats: daemon.StatusStats{
			RunID:    saved.RunID,
			Runs:     saved.Runs,
			Finished: saved.Finished,
		},
	}, nil
}

// statusLine expands a status template for status.
func statusLine(format string, status *daemon.StatusResponse) string {
	return config.ExpandStatus(format, config.StatusVars{
		Remaining:  status.Remaining,
		Seconds:    status.Seconds,
		Configured: status.Configured,
		Phase:      status.Phase,
		RunID:      status.Stats.RunID,
	})
}

// printStatus writes status as indented JSON or as one template line.
func printStatus(w io.Writer, status *daemon.StatusResponse, format string, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		_, _ = fmt.Fprintln(w, string(data))
		return nil
	}

	_, _ = fmt.Fprintln(w, statusLine(format, status))
	return nil
}

// printAction reports the outcome of a control command.
func printAction(w io.Writer, verb string, resp *daemon.ActionResponse) {
	if !resp.Changed {
		_, _ = fmt.Fprintf(w, "Nothing to %s (%s, %s remaining)\n", verb, resp.Status.Phase, resp.Status.Remaining)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", resp.Status.Remaining, resp.Status.Phase)
}
