package daemon

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// launchEnv carries the Launch from the foreground process to the background
// child. Its presence marks the child.
const launchEnv = "TMINUS_LAUNCH"

const (
	// readyTimeout is how long the parent waits for the child to answer.
	readyTimeout = 2 * time.Second
	// readyPoll is how often the parent checks.
	readyPoll = 50 * time.Millisecond
)

// Launch is the countdown the foreground process resolved for the background
// child: the child uses it instead of resolving flags, saved state and
// defaults again. Seconds is 0 when no duration was given.
type Launch struct {
	Seconds      int  `json:"seconds,omitempty"`
	Autostart    bool `json:"autostart"`
	ExitOnFinish bool `json:"exit_on_finish"`
	Restore      bool `json:"restore"`
}

// Launched returns the Launch handed to this process, and false when this
// process is not a background child.
func Launched() (Launch, bool) {
	raw, ok := os.LookupEnv(launchEnv)
	if !ok {
		return Launch{}, false
	}
	var launch Launch
	if err := json.Unmarshal([]byte(raw), &launch); err != nil {
		return Launch{}, false
	}
	return launch, true
}

// Daemonize re-executes tminus in a new session with launch attached. In the
// parent it waits for the child's control socket, reports the countdown the
// child is serving on w and returns true: the caller should exit. In the
// child it returns false and the caller continues as the daemon.
func Daemonize(launch Launch, sockPath string, w io.Writer) (bool, error) {
	if _, child := Launched(); child {
		return false, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("find executable: %w", err)
	}
	encoded, err := json.Marshal(launch)
	if err != nil {
		return false, fmt.Errorf("encode launch: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), launchEnv+"="+string(encoded))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	announce(w, pid, sockPath, readyTimeout)
	return true, nil
}

// announce reports the countdown served by the child with the given pid once
// its socket answers, or that it is still starting after timeout.
func announce(w io.Writer, pid int, sockPath string, timeout time.Duration) {
	client := NewClient(sockPath, WithTimeout(readyPoll))
	deadline := time.Now().Add(timeout)

	for {
		status, err := client.Status()
		if err == nil {
			_, _ = fmt.Fprintf(w, "Started tminus daemon (pid %d): %s %s\n", pid, status.Remaining, status.Phase)
			return
		}
		if !time.Now().Before(deadline) {
			_, _ = fmt.Fprintf(w, "Started tminus daemon (pid %d); control socket not ready yet\n", pid)
			return
		}
		time.Sleep(readyPoll)
	}
}
