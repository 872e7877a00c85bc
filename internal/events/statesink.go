package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/npratt/tminus/internal/countdown"
)

// StateBufferSize is the recommended buffer size for state sink subscriptions.
const StateBufferSize = 1000

// CurrentStateVersion is the current state file format version.
// Increment this when making incompatible changes to the State struct.
const CurrentStateVersion = 1

// DefaultSaveDebounce is how long tick updates are coalesced before they are
// written. Phase changes are written at once.
const DefaultSaveDebounce = 5 * time.Second

// ErrStateVersion is returned by ReadState for files written by an
// incompatible version.
var ErrStateVersion = errors.New("incompatible state version")

// State is the persisted countdown, written for crash recovery and read by
// `tminus status` when no daemon is running.
type State struct {
	Version    int             `json:"version"`
	Phase      countdown.Phase `json:"phase"`
	Configured int             `json:"configured"`
	Remaining  int             `json:"remaining"`
	RunID      string          `json:"run_id,omitempty"`
	Runs       int             `json:"runs"`
	Finished   int             `json:"finished"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func freshState() State {
	return State{Version: CurrentStateVersion, Phase: countdown.PhaseIdle}
}

// Countdown converts the persisted fields to a normalized countdown state.
// A countdown saved while Running comes back Paused.
func (s State) Countdown() countdown.State {
	return countdown.State{
		Configured: s.Configured,
		Remaining:  s.Remaining,
		Phase:      s.Phase,
	}.Normalize()
}

// Apply folds event into s. changed is false for events that do not touch the
// persisted fields; urgent is true when the result should be written without
// waiting for the debounce.
func (s State) Apply(event Event) (next State, changed, urgent bool) {
	switch e := event.(type) {
	case *DurationSetEvent:
		s.Configured, s.Remaining = e.Seconds, e.Seconds
		s.Phase = countdown.PhaseIdle
		s.RunID = e.RunID
		return s, true, true
	case *StartedEvent:
		s.Phase, s.Remaining = countdown.PhaseRunning, e.Remaining
		if !e.Resumed {
			s.Runs++
		}
		return s, true, true
	case *PausedEvent:
		s.Phase, s.Remaining = countdown.PhasePaused, e.Remaining
		return s, true, true
	case *ResetEvent:
		s.Phase, s.Remaining = countdown.PhaseIdle, e.Remaining
		return s, true, true
	case *RestoredEvent:
		s.Phase = countdown.Phase(e.Phase)
		s.Configured, s.Remaining = e.Configured, e.Remaining
		if e.RunID != "" {
			s.RunID = e.RunID
		}
		return s, true, true
	case *FinishedEvent:
		s.Phase, s.Remaining = countdown.PhaseFinished, 0
		s.Finished++
		return s, true, true
	case *TickEvent:
		s.Remaining = e.Remaining
		return s, true, false
	case *StateChangedEvent:
		s.Phase = countdown.Phase(e.To)
		return s, true, false
	case *TimerStopEvent:
		// The controller pauses before it stops, but that pause may have been
		// dropped; Running must never reach disk.
		if s.Phase == countdown.PhaseRunning {
			s.Phase = countdown.PhasePaused
		}
		return s, true, true
	}
	return s, false, false
}

// StateSinkOption configures a StateSink.
type StateSinkOption func(*StateSink)

// WithSaveDebounce sets how long tick updates wait before being written.
// Zero writes every change.
func WithSaveDebounce(d time.Duration) StateSinkOption {
	return func(s *StateSink) {
		s.debounce = d
	}
}

// StateSink persists the countdown to a JSON file.
type StateSink struct {
	path     string
	debounce time.Duration
	done     chan struct{}

	mu      sync.Mutex
	state   State
	pending bool
}

// NewStateSink creates a StateSink writing to path.
func NewStateSink(path string, opts ...StateSinkOption) *StateSink {
	s := &StateSink{
		path:     path,
		debounce: DefaultSaveDebounce,
		done:     make(chan struct{}),
		state:    freshState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads any saved state and consumes events until ctx is done or the
// channel closes. Pending changes are written before the sink stops.
func (s *StateSink) Start(ctx context.Context, events <-chan Event) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := s.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load state: %w", err)
	}

	go s.run(ctx, events)
	return nil
}

func (s *StateSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	var timer *time.Timer
	var flushC <-chan time.Time
	cancelFlush := func() {
		if timer != nil {
			timer.Stop()
			timer, flushC = nil, nil
		}
	}
	defer cancelFlush()

	for {
		select {
		case <-ctx.Done():
			s.drain(events)
			s.flush()
			return

		case event, ok := <-events:
			if !ok {
				s.flush()
				return
			}
			if urgent := s.fold(event); urgent || s.debounce <= 0 {
				cancelFlush()
				s.flush()
			} else if timer == nil && s.isPending() {
				timer = time.NewTimer(s.debounce)
				flushC = timer.C
			}

		case <-flushC:
			timer, flushC = nil, nil
			s.flush()
		}
	}
}

// drain folds whatever is already buffered on events.
func (s *StateSink) drain(events <-chan Event) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			s.fold(event)
		default:
			return
		}
	}
}

// fold applies event and reports whether it must be written at once.
func (s *StateSink) fold(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, urgent := s.state.Apply(event)
	if !changed {
		return false
	}
	s.state = next
	s.pending = true
	return urgent
}

func (s *StateSink) isPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// flush writes the state if it changed since the last write.
func (s *StateSink) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return
	}

	s.state.UpdatedAt = time.Now()
	if err := writeState(s.path, s.state); err != nil {
		slog.Error("state sink: save failed", "path", s.path, "error", err)
		return
	}
	s.pending = false
}

// writeState replaces the file at path atomically.
func writeState(path string, state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Stop waits for the sink to write its final state and exit.
func (s *StateSink) Stop() error {
	<-s.done
	return nil
}

// Load replaces the sink's state with the saved one. A missing file returns
// the fs.ErrNotExist error. A file that cannot be used is moved to
// <path>.backup and the sink starts fresh.
func (s *StateSink) Load() error {
	state, err := ReadState(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err != nil {
		if backupErr := os.Rename(s.path, s.path+".backup"); backupErr != nil {
			slog.Warn("state file unusable, failed to back up", "path", s.path, "error", err, "backup_error", backupErr)
		} else {
			slog.Warn("state file unusable, backed up and starting fresh", "path", s.path, "error", err)
		}
		state = freshState()
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// ReadState loads a state file without modifying it. An invalid phase reads
// as idle.
func ReadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if state.Version != CurrentStateVersion {
		return State{}, fmt.Errorf("%w: file has %d, want %d", ErrStateVersion, state.Version, CurrentStateVersion)
	}
	if !state.Phase.Valid() {
		state.Phase = countdown.PhaseIdle
	}
	return state, nil
}

// State returns a copy of the current state.
func (s *StateSink) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
