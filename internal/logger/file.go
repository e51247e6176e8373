package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileLogger logs comparisons to timestamped run files in a log directory
// and maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger writing to logDir.
// It creates the directory if needed, opens run-YYYYMMDD-HHMMSS.log and
// points latest.log at it.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== outcmp run log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message))
}

// LogCompareStart logs the start of a comparison at INFO level.
func (fl *FileLogger) LogCompareStart(expected, actual string) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Comparing %s against %s\n", time.Now().Format("15:04:05"), actual, expected))
}

// LogComparison logs the comparison outcome with every changed path at INFO level.
func (fl *FileLogger) LogComparison(c Comparison) {
	if !fl.shouldLog("info") {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	status := "PASS"
	if !c.Passed {
		status = "FAIL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === COMPARISON ===\n", timestamp)
	fmt.Fprintf(&b, "[%s] Expected:     %s\n", timestamp, c.Expected)
	fmt.Fprintf(&b, "[%s] Actual:       %s\n", timestamp, c.Actual)
	fmt.Fprintf(&b, "[%s] Status:       %s\n", timestamp, status)
	fmt.Fprintf(&b, "[%s] Changed:      %d\n", timestamp, len(c.ChangedPaths))
	for _, p := range c.ChangedPaths {
		fmt.Fprintf(&b, "[%s]   - %s\n", timestamp, p)
	}
	fmt.Fprintf(&b, "[%s] Forgiven:     %t\n", timestamp, c.Forgiven)
	fmt.Fprintf(&b, "[%s] Normalized:   %t\n", timestamp, c.Transformed)
	fmt.Fprintf(&b, "[%s] Total time:   %.3fs\n", timestamp, c.Duration.Seconds())
	if c.ReportDir != "" {
		fmt.Fprintf(&b, "[%s] Report:       %s\n", timestamp, c.ReportDir)
	}

	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
