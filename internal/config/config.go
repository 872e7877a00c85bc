// Package config provides configuration types and defaults for tminus.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for tminus.
type Config struct {
	Countdown   CountdownConfig   `yaml:"countdown" mapstructure:"countdown"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	EventLog    EventLogConfig    `yaml:"event_log" mapstructure:"event_log"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	TUI         TUIConfig         `yaml:"tui" mapstructure:"tui"`
	Status      StatusConfig      `yaml:"status" mapstructure:"status"`
}

// CountdownConfig holds engine and run settings.
type CountdownConfig struct {
	DefaultDuration time.Duration `yaml:"default_duration" mapstructure:"default_duration"` // 0 = require an explicit duration
	TickInterval    time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	Autostart       bool          `yaml:"autostart" mapstructure:"autostart"`
	ExitOnFinish    bool          `yaml:"exit_on_finish" mapstructure:"exit_on_finish"`
	Restore         bool          `yaml:"restore" mapstructure:"restore"` // Resume from the state file when no duration is given
}

// PathsConfig holds file paths for state, logs, and socket.
type PathsConfig struct {
	State  string `yaml:"state" mapstructure:"state"`
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
	PID    string `yaml:"pid" mapstructure:"pid"`
}

// EventLogConfig holds settings for the JSONL event log.
type EventLogConfig struct {
	Ticks bool `yaml:"ticks" mapstructure:"ticks"` // Record per-second tick events
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// TUIConfig holds settings for the interactive view.
type TUIConfig struct {
	ShowEvents  bool `yaml:"show_events" mapstructure:"show_events"`
	ShowTicks   bool `yaml:"show_ticks" mapstructure:"show_ticks"`
	ProgressBar bool `yaml:"progress_bar" mapstructure:"progress_bar"`
	EventLines  int  `yaml:"event_lines" mapstructure:"event_lines"`
}

// StatusConfig holds the one-line template printed by `tminus status`.
type StatusConfig struct {
	Format     string `yaml:"format" mapstructure:"format"`
	FormatFile string `yaml:"format_file" mapstructure:"format_file"` // Path to a template file (takes priority over Format)
}

// DefaultStatusFormat is the default `tminus status` line.
const DefaultStatusFormat = "{{.Remaining}} {{.Phase}}"

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Countdown: CountdownConfig{
			DefaultDuration: 0,
			TickInterval:    time.Second,
			Autostart:       false,
			ExitOnFinish:    false,
			Restore:         true,
		},
		Paths: PathsConfig{
			State:  ".tminus/state.json",
			Log:    ".tminus/tminus.log",
			Socket: ".tminus/tminus.sock",
			PID:    ".tminus/tminus.pid",
		},
		EventLog: EventLogConfig{
			Ticks: false,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		TUI: TUIConfig{
			ShowEvents:  true,
			ShowTicks:   false,
			ProgressBar: true,
			EventLines:  6,
		},
		Status: StatusConfig{
			Format: DefaultStatusFormat,
		},
	}
}

// Validate reports settings that would make the countdown unusable.
func (c *Config) Validate() error {
	if c.Countdown.DefaultDuration < 0 {
		return fmt.Errorf("countdown.default_duration must not be negative, got %s", c.Countdown.DefaultDuration)
	}
	if c.Countdown.DefaultDuration%time.Second != 0 {
		return fmt.Errorf("countdown.default_duration must be whole seconds, got %s", c.Countdown.DefaultDuration)
	}
	if c.Countdown.TickInterval <= 0 {
		return fmt.Errorf("countdown.tick_interval must be positive, got %s", c.Countdown.TickInterval)
	}
	if c.TUI.EventLines < 0 {
		return fmt.Errorf("tui.event_lines must not be negative, got %d", c.TUI.EventLines)
	}
	return nil
}

// DefaultSeconds returns the default countdown length in whole seconds.
func (c *Config) DefaultSeconds() int {
	return int(c.Countdown.DefaultDuration / time.Second)
}
