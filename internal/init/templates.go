package initcmd

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

// Starter holds the values rendered into config.yaml. The status line
// placeholders use {{ }}, so config templates use [[ ]] instead.
type Starter struct {
	// DefaultSeconds is the countdown length used when `tminus start` is
	// given no duration. 0 requires one.
	DefaultSeconds int
}

// DefaultDuration renders DefaultSeconds the way the config loader reads it.
func (s Starter) DefaultDuration() string {
	return (time.Duration(s.DefaultSeconds) * time.Second).String()
}

// readTemplate returns an embedded file verbatim.
func readTemplate(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	return string(data), nil
}

// renderConfig renders the starter config.yaml for s.
func renderConfig(s Starter) (string, error) {
	raw, err := readTemplate("config.yaml")
	if err != nil {
		return "", err
	}
	tmpl, err := template.New("config.yaml").Delims("[[", "]]").Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse config template: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, s); err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return b.String(), nil
}
