package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/npratt/tminus/internal/events"
)

// tailLast prints the last n events from the log file. n must be positive.
func tailLast(w io.Writer, path string, n int) error {
	if n < 1 {
		return fmt.Errorf("event count must be at least 1, got %d", n)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			_, _ = fmt.Fprintln(w, "No events yet (log file does not exist)")
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Keep a ring of the last n lines
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	if len(lines) == 0 {
		_, _ = fmt.Fprintln(w, "No events yet")
		return nil
	}

	for _, line := range lines {
		printEventLine(w, line)
	}
	return nil
}

// logFollower prints lines appended to one log file. The log sink rotates
// the file away on startup, so the follower reopens it when it is recreated.
type logFollower struct {
	path    string
	w       io.Writer
	file    *os.File
	reader  *bufio.Reader
	pending string
}

// open opens the log file, optionally skipping existing content.
func (f *logFollower) open(seekEnd bool) error {
	f.close()

	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	if seekEnd {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			_ = file.Close()
			return fmt.Errorf("seek to end: %w", err)
		}
	}
	f.file = file
	f.reader = bufio.NewReader(file)
	return nil
}

func (f *logFollower) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	f.file = nil
	f.reader = nil
	f.pending = ""
}

// drain prints every complete line available. A trailing partial line is
// held until its newline arrives.
func (f *logFollower) drain() error {
	if f.reader == nil {
		return nil
	}
	for {
		chunk, err := f.reader.ReadString('\n')
		f.pending += chunk
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		line := strings.TrimSuffix(f.pending, "\n")
		f.pending = ""
		if line != "" {
			printEventLine(f.w, line)
		}
	}
}

// handle reacts to a change of the followed file.
func (f *logFollower) handle(event fsnotify.Event) error {
	switch {
	case event.Has(fsnotify.Create):
		// New file after rotation: print it from the start
		if err := f.open(false); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("open log file: %w", err)
		}
		return f.drain()
	case event.Has(fsnotify.Write):
		if f.reader == nil {
			if err := f.open(false); err != nil {
				return nil
			}
		}
		return f.drain()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := f.drain(); err != nil {
			return err
		}
		f.close()
	}
	return nil
}

// tailFollow prints new events as they are appended to the log file until
// ctx is cancelled. It watches the log directory so that a log file created
// or rotated after the command starts is picked up.
func tailFollow(ctx context.Context, w io.Writer, path string) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	follower := &logFollower{path: path, w: w}
	defer follower.close()

	if err := follower.open(true); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open log file: %w", err)
		}
		_, _ = fmt.Fprintln(w, "Waiting for log file to be created...")
	}

	_, _ = fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if err := follower.handle(event); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch log: %w", err)
		}
	}
}

// printEventLine prints a single log line as "HH:MM:SS type: text". Lines
// that are not events are printed as-is.
func printEventLine(w io.Writer, line string) {
	event, err := events.ParseEvent([]byte(line))
	if err != nil || event == nil {
		_, _ = fmt.Fprintln(w, line)
		return
	}

	timestamp := event.Timestamp().Local().Format("15:04:05")
	if text := events.Format(event); text != "" {
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event.Type(), text)
		return
	}
	_, _ = fmt.Fprintf(w, "[%s] %s\n", timestamp, event.Type())
}
