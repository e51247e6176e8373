package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// colorScheme defines consistent colors for comparison output.
// Green: passing comparisons
// Red: failures and changed paths
// Yellow: tolerated differences
// Cyan: labels and identifiers
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen, color.Bold),
		fail:    color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// formatColorizedMetric formats a single metric with colorized label and value.
// Format: "label: value"
func formatColorizedMetric(label string, value interface{}, scheme *colorScheme) string {
	return fmt.Sprintf("%s: %s", scheme.label.Sprint(label), scheme.value.Sprintf("%v", value))
}

// FormatSummary formats a one-line comparison summary.
// Format: "PASS <actual> (changed: N, extra files forgiven, normalized, 12ms)"
// Colors are disabled automatically when output is not a TTY via fatih/color's detection.
func FormatSummary(c Comparison) string {
	scheme := newColorScheme()

	status := scheme.success.Sprint("PASS")
	if !c.Passed {
		status = scheme.fail.Sprint("FAIL")
	}

	changed := formatColorizedMetric("changed", len(c.ChangedPaths), scheme)
	if len(c.ChangedPaths) > 0 {
		changed = fmt.Sprintf("%s: %s", scheme.label.Sprint("changed"), scheme.fail.Sprintf("%d", len(c.ChangedPaths)))
	}
	parts := []string{changed}
	if c.Forgiven {
		parts = append(parts, scheme.warn.Sprint("extra files forgiven"))
	}
	if c.Transformed {
		parts = append(parts, scheme.warn.Sprint("normalized"))
	}
	parts = append(parts, formatDuration(c.Duration))

	return fmt.Sprintf("%s %s (%s)", status, c.Actual, strings.Join(parts, ", "))
}

// FormatChangedPaths lists changed paths, one per line, each prefixed with
// "  - ". Returns an empty string when nothing changed.
func FormatChangedPaths(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	scheme := newColorScheme()
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("  - ")
		b.WriteString(scheme.fail.Sprint(p))
		b.WriteByte('\n')
	}
	return b.String()
}
