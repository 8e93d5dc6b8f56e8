package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Accepted LOG_LEVEL values.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Accepted LOG_FORMAT values.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger, building a console logger on first use.
func Get(level string) *Logger {
	return Configure(level, FormatConsole)
}

// Configure builds the process logger. Only the first Configure or Get call takes effect.
func Configure(level, format string) *Logger {
	once.Do(func() {
		globalLogger = New(level, format, os.Stdout)
	})
	return globalLogger
}

// ValidLevel reports an error for anything other than the four accepted levels.
func ValidLevel(level string) error {
	switch normalize(level) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return nil
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}
}

// ValidFormat accepts console and json.
func ValidFormat(format string) error {
	switch normalize(format) {
	case FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown log format %q (want console or json)", format)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
