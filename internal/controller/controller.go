// Package controller hosts the countdown engine for one tminus process,
// translating engine changes into events for the TUI, the log and the state file.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/npratt/tminus/internal/config"
	"github.com/npratt/tminus/internal/countdown"
	"github.com/npratt/tminus/internal/events"
)

// Run modes reported in the timer.start event.
const (
	ModeConsole = "console"
	ModeTUI     = "tui"
	ModeDaemon  = "daemon"
)

// Stop reasons reported in the timer.stop event.
const (
	ReasonContext  = "context cancelled"
	ReasonStop     = "stop requested"
	ReasonFinished = "finished"
)

// ErrClosed is returned by Run once the controller has shut down.
var ErrClosed = errors.New("controller closed")

// Controller owns one countdown engine and publishes its changes.
type Controller struct {
	config *config.Config
	engine *countdown.Engine
	router *events.Router
	logger *slog.Logger
	mode   string

	scheduler countdown.Scheduler
	now       func() time.Time

	statsMu  sync.RWMutex
	runID    string
	runs     int
	finished int

	// Control signals
	stopSignal     chan struct{}
	finishedSignal chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the engine's timer source.
func WithScheduler(s countdown.Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithClock sets the function used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithMode sets the mode reported when Run starts.
func WithMode(mode string) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

// New creates a Controller with an idle engine. router and logger may be nil.
func New(cfg *config.Config, router *events.Router, logger *slog.Logger, opts ...Option) *Controller {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		config:         cfg,
		router:         router,
		logger:         logger,
		mode:           ModeConsole,
		scheduler:      countdown.TickerScheduler{},
		now:            time.Now,
		stopSignal:     make(chan struct{}, 1),
		finishedSignal: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine = countdown.New(
		countdown.WithScheduler(c.scheduler),
		countdown.WithInterval(cfg.Countdown.TickInterval),
		countdown.WithClock(c.now),
		countdown.WithListener(c.onChange),
	)
	return c
}

// Run announces the timer and blocks until the context is cancelled, Stop is
// called, or (with countdown.exit_on_finish) the countdown finishes. On
// return the engine is closed and its tick handle released.
func (c *Controller) Run(ctx context.Context) error {
	if c.engine.Closed() {
		return ErrClosed
	}

	c.emit(&events.TimerStartEvent{
		BaseEvent: events.NewInternalEvent(events.EventTimerStart),
		Mode:      c.mode,
	})
	c.logger.Info("timer started", "mode", c.mode, "phase", c.engine.State().Phase)

	var finished <-chan struct{}
	if c.config.Countdown.ExitOnFinish {
		finished = c.finishedSignal
	}

	var reason string
	select {
	case <-ctx.Done():
		reason = ReasonContext
	case <-c.stopSignal:
		reason = ReasonStop
	case <-finished:
		reason = ReasonFinished
	}
	return c.shutdown(reason)
}

// shutdown closes the engine and announces the stop.
func (c *Controller) shutdown(reason string) error {
	c.logger.Info("shutting down", "reason", reason)

	c.engine.Close()

	dropped := c.dropped()
	if dropped > 0 {
		c.logger.Warn("events were dropped by slow subscribers", "dropped", dropped)
	}
	c.emit(&events.TimerStopEvent{
		BaseEvent: events.NewInternalEvent(events.EventTimerStop),
		Reason:    reason,
		Dropped:   dropped,
	})

	c.logger.Info("shutdown complete")
	return nil
}

// Stop requests shutdown. It returns immediately; use Run's return to wait
// for shutdown completion.
func (c *Controller) Stop() {
	select {
	case c.stopSignal <- struct{}{}:
	default:
		// Signal already pending
	}
}

// SetDuration configures a new countdown of seconds and begins a new run.
func (c *Controller) SetDuration(seconds int) bool {
	ok := c.engine.SetDuration(seconds)
	if !ok {
		c.logger.Debug("set duration ignored", "seconds", seconds)
	}
	return ok
}

// Start starts or resumes the countdown.
func (c *Controller) Start() bool {
	ok := c.engine.Start()
	if !ok {
		c.logger.Debug("start ignored", "phase", c.engine.State().Phase)
	}
	return ok
}

// Pause pauses a running countdown.
func (c *Controller) Pause() bool {
	ok := c.engine.Pause()
	if !ok {
		c.logger.Debug("pause ignored", "phase", c.engine.State().Phase)
	}
	return ok
}

// Reset returns the countdown to its configured duration.
func (c *Controller) Reset() bool {
	return c.engine.Reset()
}

// Restore loads persisted state into the engine, keeping its run id and
// counters. It is meant to be called before Run.
func (c *Controller) Restore(saved events.State) bool {
	c.statsMu.Lock()
	c.runID = saved.RunID
	c.runs = saved.Runs
	c.finished = saved.Finished
	c.statsMu.Unlock()

	return c.engine.Restore(saved.Countdown())
}

// State returns the engine state.
func (c *Controller) State() countdown.State {
	return c.engine.State()
}

// Snapshot returns the display projection of the engine state.
func (c *Controller) Snapshot() countdown.Snapshot {
	return c.engine.Snapshot()
}

// Mode returns the run mode reported in the timer.start event.
func (c *Controller) Mode() string {
	return c.mode
}

// Stats summarizes the runs hosted by this controller. DroppedEvents counts
// router deliveries skipped because a subscriber fell behind.
type Stats struct {
	RunID         string
	Runs          int
	Finished      int
	DroppedEvents int64
}

// Stats returns current statistics.
func (c *Controller) Stats() Stats {
	dropped := c.dropped()

	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return Stats{
		RunID:         c.runID,
		Runs:          c.runs,
		Finished:      c.finished,
		DroppedEvents: dropped,
	}
}

func (c *Controller) dropped() int64 {
	if c.router == nil {
		return 0
	}
	return c.router.Dropped()
}

// onChange is the engine listener. The engine delivers changes one at a time
// in commit order, so events are emitted in the same order.
func (c *Controller) onChange(ch countdown.Change) {
	runID := c.currentRunID()
	after := ch.After

	switch ch.Op {
	case countdown.OpSetDuration:
		runID = c.newRun()
		c.emit(&events.DurationSetEvent{
			BaseEvent: events.NewEngineEvent(events.EventDurationSet, runID, ch.At),
			Seconds:   after.Configured,
		})
		c.logger.Info("duration set", "seconds", after.Configured, "run_id", runID)

	case countdown.OpStart:
		resumed := ch.Before.Phase == countdown.PhasePaused
		if !resumed {
			c.statsMu.Lock()
			c.runs++
			c.statsMu.Unlock()
		}
		c.emit(&events.StartedEvent{
			BaseEvent: events.NewEngineEvent(events.EventStarted, runID, ch.At),
			Remaining: after.Remaining,
			Resumed:   resumed,
		})
		c.logger.Info("countdown started", "remaining", after.Remaining, "resumed", resumed)

	case countdown.OpPause:
		c.emit(&events.PausedEvent{
			BaseEvent: events.NewEngineEvent(events.EventPaused, runID, ch.At),
			Remaining: after.Remaining,
		})
		c.logger.Info("countdown paused", "remaining", after.Remaining)

	case countdown.OpReset:
		c.emit(&events.ResetEvent{
			BaseEvent: events.NewEngineEvent(events.EventReset, runID, ch.At),
			Remaining: after.Remaining,
		})
		c.logger.Info("countdown reset", "remaining", after.Remaining)

	case countdown.OpRestore:
		c.emit(&events.RestoredEvent{
			BaseEvent:  events.NewEngineEvent(events.EventRestored, runID, ch.At),
			Phase:      string(after.Phase),
			Configured: after.Configured,
			Remaining:  after.Remaining,
		})
		c.logger.Info("countdown restored", "phase", after.Phase, "remaining", after.Remaining)

	case countdown.OpTick:
		c.emit(&events.TickEvent{
			BaseEvent: events.NewEngineEvent(events.EventTick, runID, ch.At),
			Remaining: after.Remaining,
		})
		if after.Phase == countdown.PhaseFinished {
			c.statsMu.Lock()
			c.finished++
			c.statsMu.Unlock()
			c.emit(&events.FinishedEvent{
				BaseEvent:  events.NewEngineEvent(events.EventFinished, runID, ch.At),
				Configured: after.Configured,
			})
			c.logger.Info("countdown finished", "configured", after.Configured, "run_id", runID)
			c.signalFinished()
		}
	}

	if ch.PhaseChanged() {
		c.emit(&events.StateChangedEvent{
			BaseEvent: events.NewEngineEvent(events.EventStateChanged, runID, ch.At),
			From:      string(ch.Before.Phase),
			To:        string(after.Phase),
		})
	}
}

func (c *Controller) currentRunID() string {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.runID
}

func (c *Controller) newRun() string {
	id := uuid.NewString()
	c.statsMu.Lock()
	c.runID = id
	c.statsMu.Unlock()
	return id
}

func (c *Controller) signalFinished() {
	select {
	case c.finishedSignal <- struct{}{}:
	default:
	}
}

// emit sends an event to the router if available.
func (c *Controller) emit(event events.Event) {
	if c.router != nil {
		c.router.Emit(event)
	}
}
