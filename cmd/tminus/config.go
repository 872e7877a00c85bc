package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagStateFile  = "state-file"
	FlagSocketPath = "socket-path"

	// Start command flags
	FlagDuration     = "duration"
	FlagAutostart    = "autostart"
	FlagTUI          = "tui"
	FlagExitOnFinish = "exit-on-finish"
	FlagRestore      = "restore"

	// Start command daemon mode flags
	FlagDaemon = "daemon"

	// Stop command flags
	FlagForce = "force"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Output format flags
	FlagJSON   = "json"
	FlagFormat = "format"

	// Init command flags
	FlagDryRun  = "dry-run"
	FlagMinimal = "minimal"
	FlagGlobal  = "global"
)
