package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/controller"
	"github.com/npratt/tminus/internal/events"
)

// Sources of the countdown loaded at startup.
const (
	sourceArgument = "argument"
	sourceState    = "state"
	sourceDefault  = "default"
	sourceNone     = "none"
)

// prepareCountdown loads the starting countdown into ctrl before it runs. An
// explicit duration wins, then the saved state when restore is enabled, then
// countdown.default_duration. It returns which of those was used.
func prepareCountdown(ctrl *controller.Controller, cfg *config.Config, seconds int, logger *slog.Logger) string {
	switch {
	case seconds > 0 && ctrl.SetDuration(seconds):
		return sourceArgument
	case seconds <= 0 && cfg.Countdown.Restore && restoreState(ctrl, cfg.Paths.State, logger):
		return sourceState
	case seconds <= 0 && cfg.DefaultSeconds() > 0 && ctrl.SetDuration(cfg.DefaultSeconds()):
		return sourceDefault
	}
	return sourceNone
}

// restoreState reloads the countdown saved at path. A running countdown comes
// back paused. Missing files and states with nothing configured are skipped
// quietly; unreadable files are logged and skipped.
func restoreState(ctrl *controller.Controller, path string, logger *slog.Logger) bool {
	saved, err := events.ReadState(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("ignoring saved state", "path", path, "error", err)
		}
		return false
	}
	if saved.Configured <= 0 {
		return false
	}

	ok := ctrl.Restore(saved)
	if ok {
		logger.Info("restored saved countdown",
			"phase", saved.Phase,
			"remaining", saved.Remaining,
			"run_id", saved.RunID,
		)
	}
	return ok
}
