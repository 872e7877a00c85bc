package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npratt/tminus/internal/controller"
	"github.com/npratt/tminus/internal/countdown"
)

// stubTimer applies the pure countdown transitions without ticking.
type stubTimer struct {
	mu      sync.Mutex
	state   countdown.State
	stops   int
	dropped int64

	// When gate is set, Snapshot reports on entered and blocks until gate
	// is closed.
	gate    chan struct{}
	entered chan struct{}
}

func newStubTimer(seconds int) *stubTimer {
	st, _ := countdown.NewState().SetDuration(seconds)
	return &stubTimer{state: st}
}

func (s *stubTimer) apply(fn func(countdown.State) (countdown.State, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := fn(s.state)
	if ok {
		s.state = next
	}
	return ok
}

func (s *stubTimer) SetDuration(seconds int) bool {
	return s.apply(func(st countdown.State) (countdown.State, bool) { return st.SetDuration(seconds) })
}

func (s *stubTimer) Start() bool { return s.apply(countdown.State.Start) }
func (s *stubTimer) Pause() bool { return s.apply(countdown.State.Pause) }

func (s *stubTimer) Reset() bool {
	return s.apply(func(st countdown.State) (countdown.State, bool) { return st.Reset(), true })
}

func (s *stubTimer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	if s.state.Phase == countdown.PhaseRunning {
		s.state, _ = s.state.Pause()
	}
}

func (s *stubTimer) Mode() string { return controller.ModeDaemon }

func (s *stubTimer) Snapshot() countdown.Snapshot {
	if s.gate != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

func (s *stubTimer) Stats() controller.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return controller.Stats{RunID: "run-1", Runs: 1, DroppedEvents: s.dropped}
}

func (s *stubTimer) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// waitForSocket waits for the socket to be ready to accept connections.
func waitForSocket(t *testing.T, socketPath string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket did not become ready within %v", timeout)
}

// shortSocketPath returns a fresh socket path under the system temp dir.
// t.TempDir paths can exceed the 104 byte sun_path limit on macOS.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tm")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir + "/c.sock"
}

// serve starts srv and waits for its socket. The returned channel yields
// Serve's result.
func serve(t *testing.T, ctx context.Context, srv *Server) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	waitForSocket(t, srv.sockPath, 2*time.Second)
	return errCh
}

func waitErr(t *testing.T, name string, ch <-chan error, timeout time.Duration) {
	t.Helper()
	select {
	case err := <-ch:
		if err != nil {
			t.Errorf("%s returned error: %v", name, err)
		}
	case <-time.After(timeout):
		t.Fatalf("%s did not return within %v", name, timeout)
	}
}

// rawCall writes line to the socket and decodes the reply into a generic map.
func rawCall(t *testing.T, sockPath, line string) map[string]any {
	t.Helper()
	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(reply, &out); err != nil {
		t.Fatalf("decode %q: %v", reply, err)
	}
	return out
}

func TestServerSetNonPositiveLeavesCountdown(t *testing.T) {
	timer := newStubTimer(1500)
	srv := New(timer, shortSocketPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, srv)

	client := NewClient(srv.sockPath)
	for _, seconds := range []int{0, -30} {
		resp, err := client.SetDuration(seconds)
		if err != nil {
			t.Fatalf("SetDuration(%d) error: %v", seconds, err)
		}
		if resp.Changed {
			t.Errorf("SetDuration(%d).Changed = true, want false", seconds)
		}
		if resp.Status.Remaining != "25:00" {
			t.Errorf("SetDuration(%d) Remaining = %q, want %q", seconds, resp.Status.Remaining, "25:00")
		}
	}
}

func TestServerSetStartPause(t *testing.T) {
	timer := newStubTimer(0)
	srv := New(timer, shortSocketPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, srv)

	client := NewClient(srv.sockPath)
	resp, err := client.SetDuration(90)
	if err != nil {
		t.Fatalf("SetDuration() error: %v", err)
	}
	if !resp.Changed || resp.Status.Remaining != "01:30" || resp.Status.Configured != 90 {
		t.Errorf("set = %+v, want changed 01:30 configured 90", resp)
	}

	if resp, err = client.Start(); err != nil || !resp.Changed {
		t.Fatalf("Start() = %+v, %v", resp, err)
	}
	if resp.Status.Phase != string(countdown.PhaseRunning) {
		t.Errorf("Phase = %q, want %q", resp.Status.Phase, countdown.PhaseRunning)
	}

	if resp, err = client.Pause(); err != nil || !resp.Changed {
		t.Fatalf("Pause() = %+v, %v", resp, err)
	}
	if resp, err = client.Pause(); err != nil || resp.Changed {
		t.Errorf("second Pause() = %+v, %v; want unchanged", resp, err)
	}
	if resp.Status.Phase != string(countdown.PhasePaused) {
		t.Errorf("Phase = %q, want %q", resp.Status.Phase, countdown.PhasePaused)
	}
}

func TestServerStatusReportsModeAndDrops(t *testing.T) {
	timer := newStubTimer(300)
	timer.dropped = 4
	srv := New(timer, shortSocketPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, srv)

	reply := rawCall(t, srv.sockPath, `{"method":"status","id":7}`)
	if reply["id"] != float64(7) {
		t.Errorf("id = %v, want 7", reply["id"])
	}
	result, ok := reply["result"].(map[string]any)
	if !ok {
		t.Fatalf("result = %v, want object", reply["result"])
	}
	if result["mode"] != controller.ModeDaemon {
		t.Errorf("mode = %v, want %q", result["mode"], controller.ModeDaemon)
	}
	if result["remaining"] != "05:00" {
		t.Errorf("remaining = %v, want 05:00", result["remaining"])
	}
	stats, _ := result["stats"].(map[string]any)
	if stats["dropped_events"] != float64(4) {
		t.Errorf("stats.dropped_events = %v, want 4", stats["dropped_events"])
	}
}

func TestServerRejectsBadRequests(t *testing.T) {
	srv := New(newStubTimer(60), shortSocketPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, srv)

	tests := []struct {
		name string
		line string
		want string
	}{
		{"unknown method", `{"method":"lap"}`, `unknown method "lap"`},
		{"bad params", `{"method":"set","params":{"seconds":"ten"}}`, "invalid params"},
		{"not json", `set 10`, "decode request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := rawCall(t, srv.sockPath, tt.line)
			msg, _ := reply["error"].(string)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.want)
			}
		})
	}
}

func TestServerForceStopClosesAtOnce(t *testing.T) {
	timer := newStubTimer(60)
	timer.Start()
	srv := New(timer, shortSocketPath(t), WithStopGrace(time.Hour))
	errCh := serve(t, context.Background(), srv)

	if err := NewClient(srv.sockPath).Stop(true); err != nil {
		t.Fatalf("Stop(true) error: %v", err)
	}
	waitErr(t, "Serve", errCh, 2*time.Second)

	if timer.stopCount() != 1 {
		t.Errorf("timer stops = %d, want 1", timer.stopCount())
	}
	if got := timer.Snapshot().Phase; got != countdown.PhasePaused {
		t.Errorf("Phase after stop = %q, want %q", got, countdown.PhasePaused)
	}
	if _, err := os.Stat(srv.sockPath); !os.IsNotExist(err) {
		t.Error("socket file should be removed after stop")
	}
}

func TestServerGracefulStopKeepsAnswering(t *testing.T) {
	timer := newStubTimer(60)
	srv := New(timer, shortSocketPath(t), WithStopGrace(300*time.Millisecond))
	errCh := serve(t, context.Background(), srv)

	client := NewClient(srv.sockPath)
	if err := client.Stop(false); err != nil {
		t.Fatalf("Stop(false) error: %v", err)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() during stop grace error: %v", err)
	}
	if status.Remaining != "01:00" {
		t.Errorf("Remaining = %q, want %q", status.Remaining, "01:00")
	}

	waitErr(t, "Serve", errCh, 2*time.Second)
	if client.IsRunning() {
		t.Error("IsRunning() = true after stop grace")
	}
}

func TestServerRefusesLiveSocket(t *testing.T) {
	sock := shortSocketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, New(newStubTimer(60), sock))

	err := New(newStubTimer(120), sock).Serve(ctx)
	if !errors.Is(err, ErrSocketInUse) {
		t.Fatalf("second Serve() error = %v, want ErrSocketInUse", err)
	}

	// The first server still owns the socket
	status, err := NewClient(sock).Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.Remaining != "01:00" {
		t.Errorf("Remaining = %q, want the first server's 01:00", status.Remaining)
	}
}

func TestServerReplacesStaleSocket(t *testing.T) {
	sock := shortSocketPath(t)

	// A socket file left by a crashed process refuses connections
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	_ = l.Close()
	if _, err := os.Stat(sock); err != nil {
		t.Fatalf("stale socket missing: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, New(newStubTimer(45), sock))

	status, err := NewClient(sock).Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.Remaining != "00:45" {
		t.Errorf("Remaining = %q, want %q", status.Remaining, "00:45")
	}
}

func TestServerFinishesRepliesBeforeReturning(t *testing.T) {
	timer := newStubTimer(600)
	timer.gate = make(chan struct{})
	timer.entered = make(chan struct{}, 1)

	srv := New(timer, shortSocketPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := serve(t, ctx, srv)

	replies := make(chan *StatusResponse, 1)
	go func() {
		status, _ := NewClient(srv.sockPath).Status()
		replies <- status
	}()
	<-timer.entered

	cancel()
	select {
	case <-errCh:
		t.Fatal("Serve returned while a reply was pending")
	case <-time.After(50 * time.Millisecond):
	}

	close(timer.gate)
	waitErr(t, "Serve", errCh, 2*time.Second)

	status := <-replies
	if status == nil || status.Remaining != "10:00" {
		t.Errorf("pending status = %+v, want remaining 10:00", status)
	}
}

func TestServerServeTwice(t *testing.T) {
	srv := New(newStubTimer(60), shortSocketPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serve(t, ctx, srv)

	if err := srv.Serve(ctx); err == nil || !strings.Contains(err.Error(), "already serving") {
		t.Errorf("second Serve() error = %v, want already serving", err)
	}
}
