// Package loggertest provides test doubles for the logger package.
// TestLogger captures JSON log lines so tests can assert on what the
// stop hook and the start command recorded.
package loggertest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger satisfies iostreams.Logger and records every entry in memory.
type TestLogger struct {
	logger zerolog.Logger
	buf    *syncBuffer
}

// New creates a test logger that captures all output at debug level and above.
func New() *TestLogger {
	buf := &syncBuffer{}
	return &TestLogger{
		logger: zerolog.New(buf).Level(zerolog.DebugLevel),
		buf:    buf,
	}
}

// NewNop creates a test logger that discards all output.
func NewNop() *TestLogger {
	return &TestLogger{
		logger: zerolog.Nop(),
		buf:    &syncBuffer{},
	}
}

func (tl *TestLogger) Debug() *zerolog.Event { return tl.logger.Debug() }
func (tl *TestLogger) Info() *zerolog.Event  { return tl.logger.Info() }
func (tl *TestLogger) Warn() *zerolog.Event  { return tl.logger.Warn() }
func (tl *TestLogger) Error() *zerolog.Event { return tl.logger.Error() }

// Output returns captured log output as a string.
func (tl *TestLogger) Output() string { return tl.buf.String() }

// Reset clears captured output.
func (tl *TestLogger) Reset() { tl.buf.Reset() }

// Entries decodes the captured JSON lines. Lines that fail to decode are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	var entries []map[string]any
	sc := bufio.NewScanner(bytes.NewBufferString(tl.buf.String()))
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// HasMessage reports whether an entry with the given level and message was logged.
func (tl *TestLogger) HasMessage(level zerolog.Level, msg string) bool {
	for _, e := range tl.Entries() {
		if e[zerolog.LevelFieldName] == level.String() && e[zerolog.MessageFieldName] == msg {
			return true
		}
	}
	return false
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}
