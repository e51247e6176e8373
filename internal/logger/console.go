// Package logger provides logging implementations for outcmp.
//
// The logger package reports comparison progress and results. Implementations
// are thread-safe and support console and file destinations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Comparison summarizes one directory comparison for logging.
type Comparison struct {
	Expected     string
	Actual       string
	Passed       bool
	ChangedPaths []string
	Forgiven     bool
	Transformed  bool
	Duration     time.Duration
	ReportDir    string
}

// ConsoleLogger logs comparison progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// NO_COLOR disables colors even on a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return !color.NoColor
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string
	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogCompareStart logs the start of a comparison at INFO level.
// Format: "[HH:MM:SS] Comparing <actual> against <expected>"
func (cl *ConsoleLogger) LogCompareStart(expected, actual string) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	if cl.colorOutput {
		actual = color.New(color.Bold).Sprint(actual)
	}
	fmt.Fprintf(cl.writer, "[%s] Comparing %s against %s\n", timestamp(), actual, expected)
}

// LogComparison logs the outcome of a comparison at INFO level.
// Changed paths are listed one per line after the status line.
func (cl *ConsoleLogger) LogComparison(c Comparison) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var b strings.Builder
	if cl.colorOutput {
		fmt.Fprintf(&b, "[%s] %s\n", ts, FormatSummary(c))
		for _, p := range c.ChangedPaths {
			fmt.Fprintf(&b, "[%s]   - %s\n", ts, color.New(color.FgRed).Sprint(p))
		}
	} else {
		fmt.Fprintf(&b, "[%s] %s\n", ts, plainSummary(c))
		for _, p := range c.ChangedPaths {
			fmt.Fprintf(&b, "[%s]   - %s\n", ts, p)
		}
	}
	if c.ReportDir != "" {
		fmt.Fprintf(&b, "[%s] Report: %s\n", ts, c.ReportDir)
	}
	cl.writer.Write([]byte(b.String()))
}

// plainSummary is FormatSummary without colors.
func plainSummary(c Comparison) string {
	status := "PASS"
	if !c.Passed {
		status = "FAIL"
	}
	s := fmt.Sprintf("%s %s (changed: %d", status, c.Actual, len(c.ChangedPaths))
	if c.Forgiven {
		s += ", extra files forgiven"
	}
	if c.Transformed {
		s += ", normalized"
	}
	return s + ", " + formatDuration(c.Duration) + ")"
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder < time.Second {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
