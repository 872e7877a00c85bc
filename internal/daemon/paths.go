package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/tminus/internal/config"
)

// infoFile is published in the project's .tminus directory while a countdown
// process runs, so commands started anywhere in the project can find it.
const infoFile = "daemon.json"

// Info describes a running tminus process.
type Info struct {
	PID        int       `json:"pid"`
	Mode       string    `json:"mode"`
	SocketPath string    `json:"socket_path"`
	PIDPath    string    `json:"pid_path"`
	LogPath    string    `json:"log_path"`
	StatePath  string    `json:"state_path"`
	StartTime  time.Time `json:"start_time"`
}

// InfoPath returns where the Info of the project rooted at projectRoot lives.
func InfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, config.ProjectConfigDir, infoFile)
}

// ResolvePaths anchors the relative runtime paths at base, the project root.
// An empty base means the working directory.
func ResolvePaths(paths config.PathsConfig, base string) (config.PathsConfig, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return paths, fmt.Errorf("get working directory: %w", err)
		}
		base = wd
	}

	for _, p := range []*string{&paths.State, &paths.Log, &paths.Socket, &paths.PID} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return paths, nil
}

// FindProjectRoot returns the directory a countdown started in startDir
// belongs to: the nearest ancestor holding a .tminus directory, else the
// nearest holding .git, else startDir itself. An empty startDir means the
// working directory.
func FindProjectRoot(startDir string) string {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		startDir = wd
	}
	start, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	gitRoot := ""
	for dir := start; ; {
		if isDir(filepath.Join(dir, config.ProjectConfigDir)) {
			return dir
		}
		if gitRoot == "" && isDir(filepath.Join(dir, ".git")) {
			gitRoot = dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if gitRoot != "" {
		return gitRoot
	}
	return start
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindInfo returns the Info published for the project containing startDir.
// A missing file, or one whose process has exited, yields ErrNotRunning.
func FindInfo(startDir string) (*Info, error) {
	path := InfoPath(FindProjectRoot(startDir))

	info, err := ReadInfo(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w (no %s)", ErrNotRunning, path)
	}
	if err != nil {
		return nil, err
	}
	if !ProcessAlive(info.PID) {
		return nil, fmt.Errorf("%w (pid %d in %s has exited)", ErrNotRunning, info.PID, path)
	}
	return info, nil
}

// WriteInfo publishes info at path. The file is replaced atomically so
// readers never see a partial document.
func WriteInfo(path string, info *Info) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create info directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode info: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write info: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish info: %w", err)
	}
	return nil
}

// ReadInfo reads the Info at path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &info, nil
}
