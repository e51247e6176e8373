package dircmp

import (
	"os"
	"strings"
	"sync"
)

// DebugEnv forces full dumps when set to 1, true or yes.
const DebugEnv = "OUTCMP_DEBUG"

var (
	debugOnce    sync.Once
	debugEnabled bool
)

// DebugEnabled reports whether DebugEnv was set. The variable is read once,
// on first use, for the life of the process.
func DebugEnabled() bool {
	debugOnce.Do(func() {
		debugEnabled = parseDebug(os.Getenv(DebugEnv))
	})
	return debugEnabled
}

func parseDebug(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
