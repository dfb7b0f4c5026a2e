// Package logger provides the process-wide run log.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	globalLogger *zerolog.Logger
	logFile      *os.File
	mu           sync.Mutex
)

// Options controls where log lines go.
type Options struct {
	// Console mirrors log lines to stderr in human-readable form.
	Console bool
	// Debug enables debug-level output.
	Debug bool
	// RunID is attached to every line when set.
	RunID string
}

// Init initializes the global logger with the specified log file path.
func Init(logPath string, opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	logFile = f

	var w io.Writer = f
	if opts.Console {
		w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if opts.RunID != "" {
		ctx = ctx.Str("run", opts.RunID)
	}
	l := ctx.Logger()
	globalLogger = &l

	return nil
}

// InitWriter initializes the global logger on an arbitrary writer (used by tests).
func InitWriter(w io.Writer, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()

	l := zerolog.New(w).Level(level)
	globalLogger = &l
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = nil
}

func logf(level zerolog.Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.WithLevel(level).Msgf(format, v...)
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf(zerolog.InfoLevel, format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	logf(zerolog.DebugLevel, format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf(zerolog.ErrorLevel, format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf(zerolog.WarnLevel, format, v...)
}

// Step logs a structured step outcome.
func Step(caseNum int, name, result string, err error) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		return
	}
	ev := globalLogger.Info()
	if err != nil {
		ev = globalLogger.Error().Err(err)
	}
	ev.Int("case", caseNum).Str("step", name).Str("result", result).Msg("step finished")
}
