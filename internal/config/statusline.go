package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// StatusVars holds variables for status template expansion.
type StatusVars struct {
	Remaining  string // mm:ss
	Seconds    int
	Configured int
	Phase      string
	RunID      string
}

// LoadStatusFormat returns the status template based on configuration priority:
// FormatFile (load from file) > Format (inline) > DefaultStatusFormat.
// Returns an error if FormatFile is set but the file cannot be read.
func (c *Config) LoadStatusFormat() (string, error) {
	if c.Status.FormatFile != "" {
		content, err := os.ReadFile(c.Status.FormatFile)
		if err != nil {
			return "", fmt.Errorf("load status format file %q: %w", c.Status.FormatFile, err)
		}
		return strings.TrimRight(string(content), "\n"), nil
	}

	if c.Status.Format != "" {
		return c.Status.Format, nil
	}

	return DefaultStatusFormat, nil
}

// ExpandStatus performs variable substitution on a status template.
// Replacement is single-pass, so values containing placeholders are not expanded.
// Supported variables: {{.Remaining}}, {{.Seconds}}, {{.Configured}}, {{.Phase}}, {{.RunID}}
func ExpandStatus(template string, vars StatusVars) string {
	r := strings.NewReplacer(
		"{{.Remaining}}", vars.Remaining,
		"{{.Seconds}}", strconv.Itoa(vars.Seconds),
		"{{.Configured}}", strconv.Itoa(vars.Configured),
		"{{.Phase}}", vars.Phase,
		"{{.RunID}}", vars.RunID,
	)
	return r.Replace(template)
}
