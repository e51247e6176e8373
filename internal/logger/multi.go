package logger

// Logger is implemented by ConsoleLogger and FileLogger.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogCompareStart(expected, actual string)
	LogComparison(c Comparison)
}

// MultiLogger forwards every call to all of its loggers.
type MultiLogger []Logger

// LogTrace forwards to every logger.
func (m MultiLogger) LogTrace(message string) {
	for _, l := range m {
		l.LogTrace(message)
	}
}

// LogDebug forwards to every logger.
func (m MultiLogger) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

// LogInfo forwards to every logger.
func (m MultiLogger) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

// LogWarn forwards to every logger.
func (m MultiLogger) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

// LogError forwards to every logger.
func (m MultiLogger) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}

// LogCompareStart forwards to every logger.
func (m MultiLogger) LogCompareStart(expected, actual string) {
	for _, l := range m {
		l.LogCompareStart(expected, actual)
	}
}

// LogComparison forwards to every logger.
func (m MultiLogger) LogComparison(c Comparison) {
	for _, l := range m {
		l.LogComparison(c)
	}
}
