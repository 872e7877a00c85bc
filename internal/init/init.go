// Package initcmd writes a starter tminus configuration: the config file, a
// status line template and a .gitignore for the runtime files tminus keeps
// next to them.
package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/npratt/tminus/internal/config"
)

// ErrConflict is returned when a file differs from its template and Force is
// not set. Nothing is written in that case.
var ErrConflict = errors.New("files have changes (use --force to overwrite)")

// StatusTemplateFile is the name of the status line template written by init.
const StatusTemplateFile = "status.tmpl"

// Options configures the init command behavior.
type Options struct {
	DryRun  bool
	Force   bool
	Minimal bool   // Only write the config file
	Global  bool   // Write to the global config directory instead of the project
	Dir     string // Project root (defaults to the working directory)
	Starter Starter
	Writer  io.Writer // defaults to os.Stdout
}

// InstallFile is one file init writes, relative to the target directory.
// Managed files only own the section between the tminus markers.
type InstallFile struct {
	Path    string
	Content string
	Managed bool
}

// Action is what init does with one file.
type Action int

const (
	ActionCreate    Action = iota // file does not exist
	ActionUnchanged               // file already matches
	ActionConflict                // file differs and Force is not set
	ActionOverwrite               // file differs and Force is set
	ActionAppend                  // managed section added after user content
	ActionUpdate                  // stale managed section replaced
)

var actionVerbs = map[Action][2]string{
	ActionCreate:    {"Would create", "Created"},
	ActionUnchanged: {"Already up to date", "Already up to date"},
	ActionConflict:  {"Would overwrite (has changes)", "Skipped (has changes)"},
	ActionOverwrite: {"Would overwrite", "Overwritten"},
	ActionAppend:    {"Would append to", "Appended"},
	ActionUpdate:    {"Would update managed section", "Updated"},
}

// Step pairs a file with the action planned for it.
type Step struct {
	File   InstallFile
	Path   string // absolute path
	Action Action
	Diff   string // set for conflicts and overwrites
	write  string // content written on apply
}

// Result lists the files by what happened to them.
type Result struct {
	TargetDir   string
	Created     []string
	Appended    []string
	Skipped     []string
	Unchanged   []string
	Overwritten []string
}

func (r *Result) record(s Step) {
	switch s.Action {
	case ActionCreate:
		r.Created = append(r.Created, s.File.Path)
	case ActionUnchanged:
		r.Unchanged = append(r.Unchanged, s.File.Path)
	case ActionConflict:
		r.Skipped = append(r.Skipped, s.File.Path)
	case ActionOverwrite:
		r.Overwritten = append(r.Overwritten, s.File.Path)
	case ActionAppend, ActionUpdate:
		r.Appended = append(r.Appended, s.File.Path)
	}
}

// BuildFileList returns the files to install. The .gitignore is only
// written for project installs.
func BuildFileList(minimal, global bool, starter Starter) ([]InstallFile, error) {
	cfg, err := renderConfig(starter)
	if err != nil {
		return nil, err
	}
	files := []InstallFile{{Path: config.ProjectConfigFile, Content: cfg}}
	if minimal {
		return files, nil
	}

	status, err := readTemplate(StatusTemplateFile)
	if err != nil {
		return nil, err
	}
	files = append(files, InstallFile{Path: StatusTemplateFile, Content: status})

	if !global {
		ignore, err := readTemplate("gitignore")
		if err != nil {
			return nil, err
		}
		files = append(files, InstallFile{Path: ".gitignore", Content: ignore, Managed: true})
	}
	return files, nil
}

// Plan decides the action for each file against what is on disk.
func Plan(targetDir string, files []InstallFile, force bool) []Step {
	steps := make([]Step, 0, len(files))
	for _, f := range files {
		path := filepath.Join(targetDir, f.Path)
		existing, err := os.ReadFile(path)
		exists := err == nil

		step := Step{File: f, Path: path, write: f.Content}
		switch {
		case f.Managed:
			step.Action, step.write = planManaged(string(existing), f.Content)
		case !exists:
			step.Action = ActionCreate
		case string(existing) == f.Content:
			step.Action = ActionUnchanged
		default:
			step.Action = ActionConflict
			if force {
				step.Action = ActionOverwrite
			}
			step.Diff = UnifiedDiff("existing", "new", string(existing), f.Content)
		}
		steps = append(steps, step)
	}
	return steps
}

// planManaged never conflicts: content outside the markers belongs to the
// user and is kept.
func planManaged(existing, section string) (Action, string) {
	switch {
	case sectionUpToDate(existing, section):
		return ActionUnchanged, existing
	case hasManagedSection(existing):
		return ActionUpdate, handleManagedSection(existing, section)
	case existing != "":
		return ActionAppend, handleManagedSection(existing, section)
	}
	return ActionCreate, handleManagedSection("", section)
}

// Run installs the starter files described by opts.
func Run(opts Options) (*Result, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	targetDir, err := resolveTargetDir(opts.Global, opts.Dir)
	if err != nil {
		return nil, err
	}
	files, err := BuildFileList(opts.Minimal, opts.Global, opts.Starter)
	if err != nil {
		return nil, err
	}
	steps := Plan(targetDir, files, opts.Force)

	result := &Result{TargetDir: targetDir}
	for _, s := range steps {
		result.record(s)
	}

	if opts.DryRun {
		_, _ = fmt.Fprint(w, "DRY RUN - No changes will be made\n\n")
		for _, s := range steps {
			report(w, s, true)
		}
		_, _ = fmt.Fprintln(w, "Run without --dry-run to apply changes.")
		return result, nil
	}

	if result.Skipped != nil {
		_, _ = fmt.Fprint(w, "The following files have changes:\n\n")
		for _, s := range steps {
			if s.Action == ActionConflict {
				_, _ = fmt.Fprintf(w, "%s:\n%s\n", s.Path, s.Diff)
			}
		}
		_, _ = fmt.Fprintln(w, "Use --force to overwrite changed files.")
		return result, ErrConflict
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return result, fmt.Errorf("create directory %s: %w", targetDir, err)
	}
	for _, s := range steps {
		if s.Action != ActionUnchanged {
			if err := os.WriteFile(s.Path, []byte(s.write), 0644); err != nil {
				return result, fmt.Errorf("write %s: %w", s.Path, err)
			}
		}
		report(w, s, false)
	}

	_, _ = fmt.Fprintln(w)
	if len(result.Unchanged) == len(steps) {
		_, _ = fmt.Fprintln(w, "tminus configuration is already up to date.")
		return result, nil
	}
	_, _ = fmt.Fprintln(w, "tminus configuration initialized.")
	if opts.Starter.DefaultSeconds > 0 {
		_, _ = fmt.Fprintf(w, "Run 'tminus start' to count down %s.\n", opts.Starter.DefaultDuration())
	} else {
		_, _ = fmt.Fprintln(w, "Run 'tminus start 25m' to begin a countdown.")
	}
	return result, nil
}

func report(w io.Writer, s Step, dryRun bool) {
	verb := actionVerbs[s.Action][1]
	if dryRun {
		verb = actionVerbs[s.Action][0]
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", verb, s.Path)

	if !dryRun {
		return
	}
	switch {
	case s.Action == ActionConflict || s.Action == ActionOverwrite:
		_, _ = fmt.Fprintln(w, s.Diff)
	case s.Action == ActionCreate && !s.File.Managed:
		_, _ = fmt.Fprintf(w, "--- BEGIN FILE ---\n%s--- END FILE ---\n\n", s.write)
	}
}

// resolveTargetDir returns the directory the files are written to.
func resolveTargetDir(global bool, dir string) (string, error) {
	if global {
		return config.GlobalDir()
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, config.ProjectConfigDir), nil
}

const (
	managedSectionBegin = "# tminus-managed begin"
	managedSectionEnd   = "# tminus-managed end"
)

// handleManagedSection replaces the section between the markers in existing
// with section, or appends section when there are no markers.
func handleManagedSection(existing, section string) string {
	section = strings.TrimRight(section, "\n")
	begin, end, ok := sectionBounds(existing)
	if !ok {
		if existing == "" {
			return section + "\n"
		}
		return strings.TrimRight(existing, "\n") + "\n\n" + section + "\n"
	}

	var parts []string
	if before := strings.TrimRight(existing[:begin], "\n"); before != "" {
		parts = append(parts, before)
	}
	parts = append(parts, section)
	if after := strings.Trim(existing[end:], "\n"); after != "" {
		parts = append(parts, after)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// sectionBounds returns the byte range of the managed section in content,
// markers included.
func sectionBounds(content string) (begin, end int, ok bool) {
	begin = strings.Index(content, managedSectionBegin)
	end = strings.Index(content, managedSectionEnd)
	if begin < 0 || end < begin {
		return 0, 0, false
	}
	return begin, end + len(managedSectionEnd), true
}

func hasManagedSection(content string) bool {
	_, _, ok := sectionBounds(content)
	return ok
}

// sectionUpToDate reports whether content already holds section verbatim.
func sectionUpToDate(content, section string) bool {
	begin, end, ok := sectionBounds(content)
	return ok && strings.TrimSpace(content[begin:end]) == strings.TrimSpace(section)
}
