package logger

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = orig })
}

func TestNewColorScheme(t *testing.T) {
	scheme := newColorScheme()

	if scheme == nil {
		t.Fatal("Expected non-nil color scheme")
	}
	if scheme.success == nil || scheme.fail == nil || scheme.warn == nil || scheme.label == nil || scheme.value == nil {
		t.Error("Expected all colors to be initialized")
	}
}

func TestFormatColorizedMetric(t *testing.T) {
	withColor(t, false)
	got := formatColorizedMetric("changed", 3, newColorScheme())
	if got != "changed: 3" {
		t.Errorf("formatColorizedMetric() = %q", got)
	}
}

func TestFormatSummary(t *testing.T) {
	withColor(t, false)

	tests := []struct {
		name string
		c    Comparison
		want string
	}{
		{
			name: "pass",
			c:    Comparison{Actual: "out", Passed: true, Duration: 3 * time.Millisecond},
			want: "PASS out (changed: 0, 3ms)",
		},
		{
			name: "fail",
			c:    Comparison{Actual: "out", ChangedPaths: []string{"a", "b"}, Duration: time.Second},
			want: "FAIL out (changed: 2, 1s)",
		},
		{
			name: "forgiven and normalized",
			c:    Comparison{Actual: "out", Passed: true, Forgiven: true, Transformed: true},
			want: "PASS out (changed: 0, extra files forgiven, normalized, 0ms)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSummary(tt.c); got != tt.want {
				t.Errorf("FormatSummary() = %q, want %q", got, tt.want)
			}
			if got := plainSummary(tt.c); got != tt.want {
				t.Errorf("plainSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSummary_Colored(t *testing.T) {
	withColor(t, true)

	got := FormatSummary(Comparison{Actual: "out", ChangedPaths: []string{"a"}})
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected ANSI codes in %q", got)
	}
	if !strings.Contains(got, "FAIL") || !strings.Contains(got, "out") {
		t.Errorf("summary lost its text: %q", got)
	}
}

func TestFormatChangedPaths(t *testing.T) {
	withColor(t, false)

	if got := FormatChangedPaths(nil); got != "" {
		t.Errorf("FormatChangedPaths(nil) = %q", got)
	}
	got := FormatChangedPaths([]string{"a.txt", "demo/A.class"})
	if got != "  - a.txt\n  - demo/A.class\n" {
		t.Errorf("FormatChangedPaths() = %q", got)
	}
}
