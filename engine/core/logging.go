package core

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// Logger is handed to every component at construction time. There is no
// package level instance.
type Logger struct {
	*log.Logger
}

func NewLogger(w io.Writer, level LogLevel) (*Logger, error) {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level `%s`: %w", level, err)
	}
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "vkscene 🔺",
	})
	l.SetLevel(lvl)
	return &Logger{l}, nil
}

// NewDefaultLogger writes to stderr at debug level.
func NewDefaultLogger() *Logger {
	l, _ := NewLogger(os.Stderr, LogLevelDebug)
	return l
}

// NewDiscardLogger swallows everything. Used by tests.
func NewDiscardLogger() *Logger {
	l, _ := NewLogger(io.Discard, LogLevelDebug)
	return l
}

func ValidLogLevel(level LogLevel) bool {
	switch LogLevel(strings.ToLower(string(level))) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return true
	}
	return false
}

// With returns a child logger carrying the given prefix, e.g. "vulkan".
func (l *Logger) With(prefix string) *Logger {
	child := l.Logger.With()
	child.SetPrefix(prefix)
	return &Logger{child}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Helper()
	l.Debugf(msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.Helper()
	l.Infof(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.Helper()
	l.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.Helper()
	l.Errorf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.Helper()
	l.Fatalf(msg, args...)
}
