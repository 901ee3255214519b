package logging

import (
	"log"
	"os"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// A Logger writes leveled log messages, discarding any below its
// configured level
type Logger struct {
	level int
	l     *log.Logger
}

// CreateLogger produces a Logger which discards messages below level
func CreateLogger(prefix string, level int) *Logger {
	return &Logger{level: level, l: log.New(os.Stderr, prefix, log.LstdFlags)}
}

// Logf writes a formatted message at the given level
func (lg *Logger) Logf(level int, format string, args ...interface{}) {
	if level < lg.level {
		return
	}
	lg.l.Printf(LogLevelToString(level)+" "+format, args...)
}
