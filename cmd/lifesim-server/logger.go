package main

import (
	"log"
	"strings"
)

// LogLevel orders the verbosity of the server log. Simulation stepping and
// snapshot writes log at debug; world lifecycle at info.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var logTags = map[LogLevel]string{
	LogLevelDebug: "[DEBUG] ",
	LogLevelInfo:  "[INFO] ",
	LogLevelWarn:  "[WARN] ",
	LogLevelError: "[ERROR] ",
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// parseLogLevel maps the -log-level flag value to a LogLevel. Unknown
// values fall back to info rather than failing startup.
func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger is the leveled logger shared by the HTTP handlers and the
// background snapshot loop. Writes go through the standard log package,
// so output ordering is safe across goroutines.
type Logger struct {
	level LogLevel
}

func NewLogger(level string) *Logger {
	return &Logger{level: parseLogLevel(level)}
}

func (l *Logger) logf(level LogLevel, format string, v ...any) {
	if level >= l.level {
		log.Printf(logTags[level]+format, v...)
	}
}

// Debugf logs per-request detail such as spawns and snapshot paths.
func (l *Logger) Debugf(format string, v ...any) {
	l.logf(LogLevelDebug, format, v...)
}

// Infof logs world lifecycle events.
func (l *Logger) Infof(format string, v ...any) {
	l.logf(LogLevelInfo, format, v...)
}

// Warnf logs recoverable problems, like a failed websocket upgrade.
func (l *Logger) Warnf(format string, v ...any) {
	l.logf(LogLevelWarn, format, v...)
}

// Errorf logs failures that abort the current request.
func (l *Logger) Errorf(format string, v ...any) {
	l.logf(LogLevelError, format, v...)
}

// Fatalf logs and exits. Only used during startup, before the server
// begins accepting requests.
func (l *Logger) Fatalf(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}
