// Package debug provides debugging and diagnostic utilities for processor development.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelFatal is for fatal errors that should terminate the plugin.
	LogLevelFatal
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) toCharm() charmlog.Level {
	switch l {
	case LogLevelDebug:
		return charmlog.DebugLevel
	case LogLevelWarn:
		return charmlog.WarnLevel
	case LogLevelError, LogLevelFatal:
		return charmlog.ErrorLevel
	case LogLevelOff:
		return charmlog.FatalLevel + 1
	default:
		return charmlog.InfoLevel
	}
}

// Logger provides structured logging for the engine and its processors. It
// wraps a charmbracelet/log.Logger, keeping the teacher's level/prefix/
// enabled API surface intact for callers that predate the structured
// backend.
type Logger struct {
	mu      sync.Mutex
	inner   *charmlog.Logger
	level   LogLevel
	prefix  string
	enabled bool
}

var (
	// defaultLogger is the global logger instance.
	defaultLogger *Logger
)

func init() {
	defaultLogger = New(os.Stderr, "", DefaultFlags)
	defaultLogger.SetLevel(LogLevelInfo)
}

// Flags for logger output formatting, kept for source compatibility with
// callers that configure a Logger by flag combination; charmbracelet/log
// always includes a timestamp and caller-appropriate context, so the flags
// only gate the prefix field here.
const (
	FlagTime = 1 << iota
	FlagShortFile
	FlagLongFile
	FlagLevel
	FlagPrefix
)

// DefaultFlags are the default formatting flags.
const DefaultFlags = FlagTime | FlagShortFile | FlagLevel | FlagPrefix

// New creates a new logger instance writing to output.
func New(output io.Writer, prefix string, flags int) *Logger {
	inner := charmlog.NewWithOptions(output, charmlog.Options{
		ReportTimestamp: flags&FlagTime != 0,
		ReportCaller:    flags&(FlagShortFile|FlagLongFile) != 0,
		Prefix:          prefix,
	})
	return &Logger{inner: inner, prefix: prefix, level: LogLevelInfo, enabled: true}
}

// NewFileLogger creates a logger that writes to a file.
func NewFileLogger(filename, prefix string, flags int) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(file, prefix, flags), nil
}

// SetOutput sets the output destination for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.SetOutput(w)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.inner.SetLevel(level.toCharm())
}

// SetPrefix sets the logger prefix.
func (l *Logger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
	l.inner.SetPrefix(prefix)
}

// SetFlags is kept for source compatibility with the unstructured logger's
// call sites; charmbracelet/log's formatting is configured at construction
// time, so this only toggles caller reporting after the fact.
func (l *Logger) SetFlags(flags int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.SetReportCaller(flags&(FlagShortFile|FlagLongFile) != 0)
	l.inner.SetReportTimestamp(flags&FlagTime != 0)
}

// SetEnabled enables or disables the logger.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled returns whether the logger is enabled.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	enabled := l.enabled
	l.mu.Unlock()
	if !enabled || level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	switch level {
	case LogLevelDebug:
		l.inner.Debug(msg)
	case LogLevelWarn:
		l.inner.Warn(msg)
	case LogLevelError:
		l.inner.Error(msg)
	case LogLevelFatal:
		l.inner.Error(msg)
	default:
		l.inner.Info(msg)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(LogLevelDebug, format, args...) }

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) { l.log(LogLevelInfo, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(LogLevelWarn, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.log(LogLevelError, format, args...) }

// Fatal logs a fatal error message and panics.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(LogLevelFatal, format, args...)
	panic(fmt.Sprintf(format, args...))
}

// Default returns the default logger instance.
func Default() *Logger { return defaultLogger }

// SetOutput sets the output destination for the default logger.
func SetOutput(w io.Writer) { defaultLogger.SetOutput(w) }

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level LogLevel) { defaultLogger.SetLevel(level) }

// SetPrefix sets the prefix for the default logger.
func SetPrefix(prefix string) { defaultLogger.SetPrefix(prefix) }

// SetFlags sets the output formatting flags for the default logger.
func SetFlags(flags int) { defaultLogger.SetFlags(flags) }

// SetEnabled enables or disables the default logger.
func SetEnabled(enabled bool) { defaultLogger.SetEnabled(enabled) }

// Debug logs a debug message using the default logger.
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }

// Info logs an informational message using the default logger.
func Info(format string, args ...interface{}) { defaultLogger.Info(format, args...) }

// Warn logs a warning message using the default logger.
func Warn(format string, args ...interface{}) { defaultLogger.Warn(format, args...) }

// Error logs an error message using the default logger.
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }

// Fatal logs a fatal error message using the default logger and panics.
func Fatal(format string, args ...interface{}) { defaultLogger.Fatal(format, args...) }

// DebugIf logs a debug message if the condition is true.
func DebugIf(condition bool, format string, args ...interface{}) {
	if condition {
		defaultLogger.Debug(format, args...)
	}
}

// WarnIf logs a warning message if the condition is true.
func WarnIf(condition bool, format string, args ...interface{}) {
	if condition {
		defaultLogger.Warn(format, args...)
	}
}

// ErrorIf logs an error message if the condition is true.
func ErrorIf(condition bool, format string, args ...interface{}) {
	if condition {
		defaultLogger.Error(format, args...)
	}
}
