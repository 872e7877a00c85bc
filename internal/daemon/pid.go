package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/npratt/tminus/internal/config"
)

// ErrAlreadyRunning is returned by Lock.Acquire when another live process
// owns the project's countdown.
var ErrAlreadyRunning = errors.New("tminus already running")

// Lock makes one process the owner of a project's countdown. The owner holds
// an flock on the pid file and publishes its Info next to it; both are
// removed on Release. The state file is never touched, so a countdown left
// behind by a crashed owner can still be restored.
type Lock struct {
	pidPath  string
	sockPath string
	infoPath string
	file     *os.File
}

// NewLock returns the lock for the runtime files in paths, publishing Info at
// infoPath.
func NewLock(paths config.PathsConfig, infoPath string) *Lock {
	return &Lock{
		pidPath:  paths.PID,
		sockPath: paths.Socket,
		infoPath: infoPath,
	}
}

// Acquire takes ownership. Files left by an owner that has exited are removed
// first and returned so the caller can report them.
func (l *Lock) Acquire() (stale []string, err error) {
	if err := os.MkdirAll(filepath.Dir(l.pidPath), 0755); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}

	stale = l.clearStale()

	file, err := os.OpenFile(l.pidPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return stale, fmt.Errorf("open pid file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return stale, fmt.Errorf("%w (pid %d holds %s)", ErrAlreadyRunning, l.Owner(), l.pidPath)
		}
		return stale, fmt.Errorf("lock pid file: %w", err)
	}

	if err := writePID(file); err != nil {
		unlock(file)
		return stale, err
	}
	l.file = file
	return stale, nil
}

func writePID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate pid file: %w", err)
	}
	if _, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return file.Sync()
}

func unlock(file *os.File) {
	_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
	_ = file.Close()
}

// Publish writes info for other commands to discover. It requires the lock.
func (l *Lock) Publish(info *Info) error {
	if l.file == nil {
		return errors.New("publish info: lock not held")
	}
	return WriteInfo(l.infoPath, info)
}

// Release gives up ownership and removes the pid file and Info. It is a no-op
// when the lock is not held.
func (l *Lock) Release() {
	if l.file == nil {
		return
	}
	_ = os.Remove(l.infoPath)
	_ = os.Remove(l.pidPath)
	unlock(l.file)
	l.file = nil
}

// Owner returns the pid recorded in the pid file, or 0.
func (l *Lock) Owner() int {
	data, err := os.ReadFile(l.pidPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid < 0 {
		return 0
	}
	return pid
}

// clearStale removes the pid file, socket and Info of an owner that is no
// longer alive.
func (l *Lock) clearStale() []string {
	owner := l.Owner()
	if owner == 0 || ProcessAlive(owner) {
		return nil
	}

	var removed []string
	for _, path := range []string{l.pidPath, l.sockPath, l.infoPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed = append(removed, path)
		}
	}
	return removed
}

// ProcessAlive reports whether pid names a live process. A process owned by
// another user still counts as alive.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
