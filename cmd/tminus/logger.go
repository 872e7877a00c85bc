package main

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/npratt/tminus/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// debugLogName is the file written next to the event log when stderr is
// unavailable (TUI or daemonized).
const debugLogName = "tminus-debug.log"

// FileLoggerResult contains the results of setting up file logging.
type FileLoggerResult struct {
	Logger   *slog.Logger
	LogFile  io.WriteCloser
	FilePath string
}

// Close closes the log file if it was opened.
func (r *FileLoggerResult) Close() error {
	if r.LogFile != nil {
		return r.LogFile.Close()
	}
	return nil
}

// SetupFileLogger creates a logger that writes to a rotating file instead of stderr.
// The TUI owns the terminal and a daemonized child has no stderr, so both log here.
// Rotation follows the log_rotation config section.
func SetupFileLogger(logDir string, level slog.Leveler, rotationCfg config.LogRotationConfig) (*FileLoggerResult, error) {
	debugLogPath := filepath.Join(logDir, debugLogName)

	debugLogWriter := &lumberjack.Logger{
		Filename:   debugLogPath,
		MaxSize:    rotationCfg.MaxSizeMB,
		MaxBackups: rotationCfg.MaxBackups,
		MaxAge:     rotationCfg.MaxAgeDays,
		Compress:   rotationCfg.Compress,
	}

	logger := SetupLoggerWithWriter(debugLogWriter, level)

	return &FileLoggerResult{
		Logger:   logger,
		LogFile:  debugLogWriter,
		FilePath: debugLogPath,
	}, nil
}

// SetupLoggerWithWriter creates a JSON logger that writes to the given writer.
func SetupLoggerWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
