// Package daemon serves the countdown of one tminus process on a Unix socket
// so that other invocations can inspect and control it, and handles running
// that process in the background.
package daemon

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/npratt/tminus/internal/controller"
	"github.com/npratt/tminus/internal/countdown"
)

// Timer is the countdown surface served over the socket.
// *controller.Controller satisfies it.
type Timer interface {
	SetDuration(seconds int) bool
	Start() bool
	Pause() bool
	Reset() bool
	Stop()
	Mode() string
	Snapshot() countdown.Snapshot
	Stats() controller.Stats
}

// DefaultStopGrace is how long the socket stays open after a stop request so
// status calls made while the countdown shuts down still get answered.
const DefaultStopGrace = 100 * time.Millisecond

// Server answers control requests for one Timer.
type Server struct {
	timer     Timer
	sockPath  string
	logger    *slog.Logger
	stopGrace time.Duration

	mu       sync.Mutex
	listener net.Listener
	started  time.Time
	done     chan struct{}
	conns    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStopGrace sets how long a non-forced stop keeps the socket open.
func WithStopGrace(d time.Duration) Option {
	return func(s *Server) {
		s.stopGrace = d
	}
}

// New creates a server for timer on sockPath. Call Serve to start it.
func New(timer Timer, sockPath string, opts ...Option) *Server {
	s := &Server{
		timer:     timer,
		sockPath:  sockPath,
		logger:    slog.Default(),
		stopGrace: DefaultStopGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// status builds the live status payload.
func (s *Server) status() StatusResponse {
	snap := s.timer.Snapshot()
	stats := s.timer.Stats()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	resp := StatusResponse{
		Running:    true,
		Mode:       s.timer.Mode(),
		Phase:      string(snap.Phase),
		Remaining:  snap.Remaining,
		Seconds:    snap.Seconds,
		Configured: snap.Configured,
		Stats: StatusStats{
			RunID:         stats.RunID,
			Runs:          stats.Runs,
			Finished:      stats.Finished,
			DroppedEvents: stats.DroppedEvents,
		},
	}
	if !started.IsZero() {
		resp.Uptime = time.Since(started).Truncate(time.Second).String()
		resp.StartTime = started.Format(time.RFC3339)
	}
	return resp
}
