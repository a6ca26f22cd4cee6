// Package logger provides the process-wide zerolog logger for ralph-loop.
//
// ralph-loop runs as a Claude Code Stop hook, where stdout carries the hook
// protocol and stderr is surfaced to the user. Logs therefore go to a
// rotating JSON file; the console mirror is only enabled with --debug.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the name of the log file inside the logs directory.
const LogFileName = "ralph-loop.log"

var (
	// Log is the global logger instance
	Log zerolog.Logger = zerolog.Nop()

	// fileWriter is the file output for logging (with rotation)
	fileWriter *lumberjack.Logger

	// logContext holds session/loop context for log entries (optional, may be empty)
	logContext   logContextData
	logContextMu sync.RWMutex
)

type logContextData struct {
	Session string
	LoopID  string
}

// SetContext sets session and loop context for all subsequent log entries.
// Pass empty strings to clear. Thread-safe.
func SetContext(session, loopID string) {
	logContextMu.Lock()
	defer logContextMu.Unlock()
	logContext = logContextData{
		Session: session,
		LoopID:  loopID,
	}
}

// ClearContext clears the session/loop context.
func ClearContext() {
	SetContext("", "")
}

func getContext() logContextData {
	logContextMu.RLock()
	defer logContextMu.RUnlock()
	return logContext
}

func addContext(event *zerolog.Event) *zerolog.Event {
	ctx := getContext()
	if ctx.Session != "" {
		event = event.Str("session", ctx.Session)
	}
	if ctx.LoopID != "" {
		event = event.Str("loop_id", ctx.LoopID)
	}
	return event
}

// LoggingConfig holds configuration for file-based logging.
// This mirrors config.LoggingConfig but is duplicated here
// to avoid circular imports.
type LoggingConfig struct {
	FileEnabled *bool
	MaxSizeMB   int
	MaxAgeDays  int
	MaxBackups  int
}

// IsFileEnabled returns whether file logging is enabled.
// Defaults to true if not explicitly set.
func (c *LoggingConfig) IsFileEnabled() bool {
	if c.FileEnabled == nil {
		return true
	}
	return *c.FileEnabled
}

// GetMaxSizeMB returns the max size in MB, defaulting to 50 if not set.
func (c *LoggingConfig) GetMaxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 50
	}
	return c.MaxSizeMB
}

// GetMaxAgeDays returns the max age in days, defaulting to 7 if not set.
func (c *LoggingConfig) GetMaxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 7
	}
	return c.MaxAgeDays
}

// GetMaxBackups returns the max backups, defaulting to 3 if not set.
func (c *LoggingConfig) GetMaxBackups() int {
	if c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

// Init installs a nop logger. It is the placeholder used until file
// logging is configured, and the fallback when it cannot be.
func Init() {
	Log = zerolog.Nop()
}

// InitWithFile initializes the logger with file output.
// When debug is set, entries are also mirrored to stderr in console format
// and the level is lowered to debug.
// If logsDir is empty or cfg disables file logging, only the debug console
// mirror (if any) remains.
func InitWithFile(debug bool, logsDir string, cfg *LoggingConfig) error {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var writers []io.Writer
	if debug {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	if logsDir != "" && cfg != nil && cfg.IsFileEnabled() {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}

		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(logsDir, LogFileName),
			MaxSize:    cfg.GetMaxSizeMB(),  // MB
			MaxAge:     cfg.GetMaxAgeDays(), // days
			MaxBackups: cfg.GetMaxBackups(),
			LocalTime:  true,
		}
		writers = append(writers, fileWriter)
	}

	if len(writers) == 0 {
		Init()
		return nil
	}

	Log = zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()

	return nil
}

// CloseFileWriter closes the file writer if it exists.
// Call this on program shutdown for clean log file closure.
func CloseFileWriter() error {
	if fileWriter != nil {
		err := fileWriter.Close()
		fileWriter = nil
		return err
	}
	return nil
}

// GetLogFilePath returns the path to the current log file, or empty string if file logging is disabled.
func GetLogFilePath() string {
	if fileWriter != nil {
		return fileWriter.Filename
	}
	return ""
}

// Debug logs a debug message.
func Debug() *zerolog.Event {
	return addContext(Log.Debug())
}

// Info logs an info message.
func Info() *zerolog.Event {
	return addContext(Log.Info())
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return addContext(Log.Warn())
}

// Error logs an error message.
func Error() *zerolog.Event {
	return addContext(Log.Error())
}

// WithField returns a logger with an additional field
func WithField(key string, value interface{}) zerolog.Logger {
	return Log.With().Interface(key, value).Logger()
}

// Contextual delegates to the package-level helpers so entries carry the
// session/loop context. It satisfies iostreams.Logger.
type Contextual struct{}

func (Contextual) Debug() *zerolog.Event { return Debug() }
func (Contextual) Info() *zerolog.Event  { return Info() }
func (Contextual) Warn() *zerolog.Event  { return Warn() }
func (Contextual) Error() *zerolog.Event { return Error() }
