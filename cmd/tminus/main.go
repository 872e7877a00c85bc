package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/controller"
	"github.com/npratt/tminus/internal/daemon"
	"github.com/npratt/tminus/internal/events"
	initcmd "github.com/npratt/tminus/internal/init"
	"github.com/npratt/tminus/internal/shutdown"
	"github.com/npratt/tminus/internal/tui"
)

var version = "dev"

// tuiEventBuffer is the TUI subscription size. Ticks arrive once per second,
// so this covers well over an hour of a stalled view.
const tuiEventBuffer = 5000

// shutdownTimeout bounds how long console and daemon modes wait for the
// countdown to stop after a signal.
const shutdownTimeout = 30 * time.Second

// controlTimeout bounds control calls from the CLI. The server answers from
// memory, so anything slower means it is wedged.
const controlTimeout = 2 * time.Second

// getDaemonClient creates a client for the running tminus process, using
// --socket-path when given and daemon.json otherwise.
func getDaemonClient() (*daemon.Client, error) {
	if viper.IsSet(FlagSocketPath) {
		return daemon.NewClient(viper.GetString(FlagSocketPath), daemon.WithTimeout(controlTimeout)), nil
	}
	info, err := daemon.FindInfo("")
	if err != nil {
		return nil, err
	}
	return daemon.NewClient(info.SocketPath, daemon.WithTimeout(controlTimeout)), nil
}

// loadConfig loads configuration, applies the global path flags and
// resolves relative paths against the project root.
func loadConfig() (*config.Config, string, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	// Apply CLI flag overrides (flag or TMINUS_* env)
	if viper.IsSet(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if viper.IsSet(FlagStateFile) {
		cfg.Paths.State = viper.GetString(FlagStateFile)
	}
	if viper.IsSet(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}

	projectRoot := daemon.FindProjectRoot("")

	cfg.Paths, err = daemon.ResolvePaths(cfg.Paths, projectRoot)
	if err != nil {
		return nil, "", fmt.Errorf("resolve paths: %w", err)
	}
	if cfg.Status.FormatFile != "" && !filepath.IsAbs(cfg.Status.FormatFile) {
		cfg.Status.FormatFile = filepath.Join(projectRoot, cfg.Status.FormatFile)
	}

	return cfg, projectRoot, nil
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := SetupLoggerWithWriter(os.Stderr, logLevel)

	viper.SetEnvPrefix("TMINUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	rootCmd := newRootCmd(logger, logLevel)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tminus",
		Short: "A countdown timer for the terminal",
		Long: `tminus runs a single countdown: set a duration, start it, pause and
resume it, and reset it back to the full length.

The countdown runs in an interactive terminal view, as a plain console
printer, or in the background as a daemon. While one is running, the
set, resume, pause, reset and status commands control it from any shell.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .tminus/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event log file path")
	rootCmd.PersistentFlags().String(FlagStateFile, "", "State file path")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for control commands")

	// Bind all flags to viper
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(
		newVersionCmd(),
		newStartCmd(logger, logLevel),
		newStatusCmd(),
		newSetCmd(),
		newActionCmd("resume", "Start or resume the countdown", "resume", (*daemon.Client).Start),
		newActionCmd("pause", "Pause the countdown", "pause", (*daemon.Client).Pause),
		newActionCmd("reset", "Reset the countdown to its full duration", "reset", (*daemon.Client).Reset),
		newStopCmd(),
		newEventsCmd(),
		newInitCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tminus %s\n", version)
		},
	}
}

func newStartCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start [duration]",
		Short: "Run a countdown",
		Long: `Run a countdown in the foreground, or in the background with --daemon.

The duration accepts Go syntax (25m, 1m30s), plain seconds (90) or clock
notation (1:30). Without one, the countdown saved in the state file is
restored (countdown.restore), falling back to countdown.default_duration.

The interactive view is used when stdout is a terminal; otherwise events are
printed one per line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, args, logger, logLevel)
		},
	}

	startCmd.Flags().String(FlagDuration, "", "Countdown length (25m, 90, 1:30)")
	startCmd.Flags().Bool(FlagAutostart, false, "Start counting immediately")
	startCmd.Flags().Bool(FlagTUI, false, "Enable terminal UI")
	startCmd.Flags().Bool(FlagDaemon, false, "Run as a background daemon")
	startCmd.Flags().Bool(FlagExitOnFinish, false, "Exit when the countdown finishes")
	startCmd.Flags().Bool(FlagRestore, true, "Restore the saved countdown when no duration is given")

	return startCmd
}

// runStart hosts a countdown until it is stopped.
func runStart(cmd *cobra.Command, args []string, logger *slog.Logger, logLevel *slog.LevelVar) error {
	flags := cmd.Flags()
	daemonMode, _ := flags.GetBool(FlagDaemon)

	// Determine TUI mode: explicit flag > auto-detect from TTY
	tuiEnabled, _ := flags.GetBool(FlagTUI)
	if !flags.Changed(FlagTUI) && !daemonMode {
		tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
	}

	// Check for incompatible flags
	if tuiEnabled && daemonMode {
		return fmt.Errorf("--tui and --daemon flags are incompatible")
	}

	durationFlag, _ := flags.GetString(FlagDuration)
	seconds, err := startSeconds(args, durationFlag, flags.Changed(FlagDuration))
	if err != nil {
		return err
	}

	cfg, projectRoot, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply start flag overrides (only if explicitly set)
	if flags.Changed(FlagAutostart) {
		cfg.Countdown.Autostart, _ = flags.GetBool(FlagAutostart)
	}
	if flags.Changed(FlagExitOnFinish) {
		cfg.Countdown.ExitOnFinish, _ = flags.GetBool(FlagExitOnFinish)
	}
	if flags.Changed(FlagRestore) {
		cfg.Countdown.Restore, _ = flags.GetBool(FlagRestore)
	}

	// Only one process may own the socket
	if existing := daemon.NewClient(cfg.Paths.Socket, daemon.WithTimeout(controlTimeout)); existing.IsRunning() {
		return fmt.Errorf("%w (socket: %s)", daemon.ErrAlreadyRunning, existing.SocketPath())
	}

	// A background child takes the countdown its parent resolved
	launch, daemonized := daemon.Launched()
	if daemonized {
		seconds = launch.Seconds
		cfg.Countdown.Autostart = launch.Autostart
		cfg.Countdown.ExitOnFinish = launch.ExitOnFinish
		cfg.Countdown.Restore = launch.Restore
	}

	mode := controller.ModeConsole
	switch {
	case tuiEnabled:
		mode = controller.ModeTUI
	case daemonMode:
		mode = controller.ModeDaemon

		shouldExit, err := daemon.Daemonize(daemon.Launch{
			Seconds:      seconds,
			Autostart:    cfg.Countdown.Autostart,
			ExitOnFinish: cfg.Countdown.ExitOnFinish,
			Restore:      cfg.Countdown.Restore,
		}, cfg.Paths.Socket, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
		if shouldExit {
			return nil
		}
	}

	// The TUI owns the terminal and a daemon has no stderr: log to a file
	if tuiEnabled || daemonized {
		logResult, err := SetupFileLogger(filepath.Dir(cfg.Paths.Log), logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = logResult.Close() }()
		logger = logResult.Logger
		slog.SetDefault(logger)
	}

	lock := daemon.NewLock(cfg.Paths, daemon.InfoPath(projectRoot))
	stale, err := lock.Acquire()
	if len(stale) > 0 {
		logger.Info("removed files left by an exited tminus", "files", stale)
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	logger.Info("tminus starting",
		"version", version,
		"mode", mode,
		"log_file", cfg.Paths.Log,
		"state_file", cfg.Paths.State,
		"socket", cfg.Paths.Socket,
	)

	// Publish daemon.json for CLI discovery
	if err := lock.Publish(&daemon.Info{
		PID:        os.Getpid(),
		Mode:       mode,
		SocketPath: cfg.Paths.Socket,
		PIDPath:    cfg.Paths.PID,
		LogPath:    cfg.Paths.Log,
		StatePath:  cfg.Paths.State,
		StartTime:  time.Now(),
	}); err != nil {
		logger.Warn("failed to write daemon info", "error", err)
	}

	// Create event router
	router := events.NewRouter(events.DefaultBufferSize)

	// Create and start sinks
	var logOpts []events.LogSinkOption
	if !cfg.EventLog.Ticks {
		logOpts = append(logOpts, events.WithoutTicks())
	}
	logSink := events.NewLogSink(cfg.Paths.Log, logOpts...)
	stateSink := events.NewStateSink(cfg.Paths.State)

	ctx := cmd.Context()
	sinkCtx, sinkCancel := context.WithCancel(ctx)

	if err := logSink.Start(sinkCtx, router.Subscribe()); err != nil {
		sinkCancel()
		return fmt.Errorf("start log sink: %w", err)
	}
	if err := stateSink.Start(sinkCtx, router.SubscribeBuffered(events.StateBufferSize)); err != nil {
		sinkCancel()
		router.Close()
		_ = logSink.Stop()
		return fmt.Errorf("start state sink: %w", err)
	}
	defer func() {
		sinkCancel()
		router.Close()
		_ = logSink.Stop()
		_ = stateSink.Stop()
	}()

	ctrl := controller.New(cfg, router, logger, controller.WithMode(mode))

	// Subscribe the view before the first countdown events are emitted
	var viewEvents <-chan events.Event
	if mode != controller.ModeDaemon {
		viewEvents = router.SubscribeBuffered(tuiEventBuffer)
	}

	source := prepareCountdown(ctrl, cfg, seconds, logger)
	if cfg.Countdown.Autostart {
		ctrl.Start()
	}
	snap := ctrl.Snapshot()
	logger.Info("countdown ready", "source", source, "phase", snap.Phase, "remaining", snap.Remaining)

	// Serve control commands in every mode
	server := daemon.New(ctrl, cfg.Paths.Socket, daemon.WithLogger(logger))
	daemonCtx, daemonCancel := context.WithCancel(ctx)
	daemonDone := make(chan struct{})
	go func() {
		defer close(daemonDone)
		if err := server.Serve(daemonCtx); err != nil {
			logger.Error("control socket error", "error", err)
		}
	}()
	stopDaemon := func() {
		daemonCancel()
		<-daemonDone
	}

	if tuiEnabled {
		tuiApp := tui.New(viewEvents, ctrl,
			tui.WithOnQuit(ctrl.Stop),
			tui.WithConfig(cfg.TUI),
		)

		// Run controller in background; closing the router ends the TUI when
		// the countdown stops on its own (stop command, exit_on_finish)
		ctrlDone := make(chan error, 1)
		go func() {
			ctrlDone <- ctrl.Run(ctx)
			router.Close()
		}()

		// Run TUI in foreground (blocks until quit)
		tuiErr := tuiApp.Run()
		router.Unsubscribe(viewEvents)

		ctrl.Stop()
		<-ctrlDone
		stopDaemon()
		return tuiErr
	}

	printerDone := make(chan struct{})
	if viewEvents != nil {
		printer := tui.New(viewEvents, ctrl,
			tui.WithPlainOutput(cmd.OutOrStdout()),
			tui.WithOnQuit(ctrl.Stop),
		)
		go func() {
			defer close(printerDone)
			_ = printer.Run()
		}()
	} else {
		close(printerDone)
	}

	err = shutdown.RunWithGracefulShutdown(
		ctx,
		logger,
		shutdownTimeout,
		func(runCtx context.Context) error {
			return ctrl.Run(runCtx)
		},
		func(shutdownCtx context.Context) error {
			ctrl.Stop()
			stopDaemon()
			return nil
		},
	)

	stopDaemon()
	if viewEvents != nil {
		router.Unsubscribe(viewEvents)
	}
	<-printerDone
	return err
}

func newStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the countdown",
		Long: `Show the countdown of the running tminus process as one line using
status.format (or status.format_file). When nothing is running, the
countdown saved in the state file is shown instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			format, err := cfg.LoadStatusFormat()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(FlagFormat) {
				format, _ = cmd.Flags().GetString(FlagFormat)
			}

			var status *daemon.StatusResponse
			client, err := getDaemonClient()
			if err == nil && client.IsRunning() {
				status, err = client.Status()
			} else {
				status, err = savedStatus(cfg.Paths.State)
			}
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool(FlagJSON)
			return printStatus(cmd.OutOrStdout(), status, format, asJSON)
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	statusCmd.Flags().String(FlagFormat, "", "Status template, e.g. '{{.Remaining}} {{.Phase}}'")
	return statusCmd
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <duration>",
		Short: "Set a new countdown duration",
		Long: `Set a new countdown duration on the running tminus process. The
countdown returns to idle at the new length; use resume to start it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := parseDuration(args[0])
			if err != nil {
				return err
			}

			client, err := getDaemonClient()
			if err != nil {
				return err
			}

			resp, err := client.SetDuration(seconds)
			if err != nil {
				return err
			}

			printAction(cmd.OutOrStdout(), "set", resp)
			return nil
		},
	}
}

// newActionCmd builds a parameterless control command.
func newActionCmd(use, short, verb string, call func(*daemon.Client) (*daemon.ActionResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}

			resp, err := call(client)
			if err != nil {
				return err
			}

			printAction(cmd.OutOrStdout(), verb, resp)
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running tminus process",
		Long: `Stop the running tminus process. A running countdown is saved as
paused and picked up again by the next start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool(FlagForce)
			if err := client.Stop(force); err != nil {
				return err
			}

			if force {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stop requested - stopping immediately")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
			}
			return nil
		},
	}

	stopCmd.Flags().Bool(FlagForce, false, "Close the control socket without waiting")
	return stopCmd
}

func newEventsCmd() *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get log file path from daemon.json or the resolved config
			var logPath string
			if info, err := daemon.FindInfo(""); err == nil && !viper.IsSet(FlagLogFile) {
				logPath = info.LogPath
			} else {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				logPath = cfg.Paths.Log
			}

			count, _ := cmd.Flags().GetInt(FlagCount)
			follow, _ := cmd.Flags().GetBool(FlagFollow)
			if count < 1 {
				return fmt.Errorf("--%s must be at least 1, got %d", FlagCount, count)
			}

			if follow {
				return tailFollow(cmd.Context(), cmd.OutOrStdout(), logPath)
			}
			return tailLast(cmd.OutOrStdout(), logPath, count)
		},
	}

	eventsCmd.Flags().Bool(FlagFollow, false, "Follow event stream (like tail -f)")
	eventsCmd.Flags().Int(FlagCount, 20, "Number of recent events to show")
	return eventsCmd
}

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter tminus configuration",
		Long: `Write a commented configuration file and a status line template.

Creates the following structure:
  .tminus/
    config.yaml
    status.tmpl (unless --minimal)
    .gitignore  (managed section, unless --global)

With --duration the config sets countdown.default_duration, so a bare
'tminus start' counts down that long.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts := initcmd.Options{Writer: cmd.OutOrStdout()}
			opts.DryRun, _ = flags.GetBool(FlagDryRun)
			opts.Force, _ = flags.GetBool(FlagForce)
			opts.Minimal, _ = flags.GetBool(FlagMinimal)
			opts.Global, _ = flags.GetBool(FlagGlobal)
			if flags.Changed(FlagDuration) {
				text, _ := flags.GetString(FlagDuration)
				seconds, err := parseDuration(text)
				if err != nil {
					return err
				}
				opts.Starter.DefaultSeconds = seconds
			}

			_, err := initcmd.Run(opts)
			return err
		},
	}

	initCmd.Flags().Bool(FlagDryRun, false, "Show what would be changed without making changes")
	initCmd.Flags().Bool(FlagForce, false, "Overwrite files that differ from the templates")
	initCmd.Flags().Bool(FlagMinimal, false, "Write only config.yaml")
	initCmd.Flags().Bool(FlagGlobal, false, "Write to ~/.config/tminus/ instead of ./.tminus/")
	initCmd.Flags().String(FlagDuration, "", "Default countdown length written to config.yaml")
	return initCmd
}
