package ralph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/schmitthub/ralphloop/internal/logger"
)

const (
	// HistoryKey is the store key of the loop history journal.
	// The leading dot keeps it outside the record namespace.
	HistoryKey = ".ralph-loop-history.json"

	// MaxHistoryEntries is the maximum number of history entries to keep.
	MaxHistoryEntries = 50
)

// ErrHistoryCorrupt reports a journal that is not valid JSON.
var ErrHistoryCorrupt = errors.New("loop history corrupted")

// Event names a loop lifecycle transition.
type Event string

const (
	EventStarted               Event = "started"
	EventReclaimed             Event = "reclaimed"
	EventContinued             Event = "continued"
	EventCompleted             Event = "completed"
	EventBudgetExhausted       Event = "budget_exhausted"
	EventCorrupted             Event = "corrupted"
	EventTranscriptUnavailable Event = "transcript_unavailable"
	EventCancelled             Event = "cancelled"
)

// HistoryEntry is one journaled transition.
type HistoryEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Event         Event     `json:"event"`
	Session       string    `json:"session"`
	LoopID        string    `json:"loop_id,omitempty"`
	Iteration     int       `json:"iteration,omitempty"`
	MaxIterations int       `json:"max_iterations,omitempty"`
	Detail        string    `json:"detail,omitempty"`
}

// History is the journal document.
type History struct {
	Entries []HistoryEntry `json:"entries"`
}

// HistoryStore appends lifecycle transitions to a bounded journal kept in
// the same Store as the records. Callers serialize access with the store
// lock.
type HistoryStore struct {
	store Store
	now   func() time.Time
}

// NewHistoryStore creates a journal backed by store.
func NewHistoryStore(store Store) *HistoryStore {
	return &HistoryStore{store: store, now: time.Now}
}

// Load returns the journal, or an empty one if none has been written.
func (h *HistoryStore) Load(ctx context.Context) (*History, error) {
	data, err := h.store.Get(ctx, HistoryKey)
	if errors.Is(err, ErrNotFound) {
		return &History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read loop history: %w", err)
	}

	var history History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryCorrupt, err)
	}
	return &history, nil
}

// Add appends entry, trimming to MaxHistoryEntries. A corrupted journal is
// started over rather than blocking every later write.
func (h *HistoryStore) Add(ctx context.Context, entry HistoryEntry) error {
	history, err := h.Load(ctx)
	if errors.Is(err, ErrHistoryCorrupt) {
		logger.Warn().Err(err).Msg("resetting loop history")
		history, err = &History{}, nil
	}
	if err != nil {
		return err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = h.now().UTC()
	}
	history.Entries = append(history.Entries, entry)

	if len(history.Entries) > MaxHistoryEntries {
		history.Entries = history.Entries[len(history.Entries)-MaxHistoryEntries:]
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal loop history: %w", err)
	}
	if err := h.store.Put(ctx, HistoryKey, data); err != nil {
		return fmt.Errorf("failed to write loop history: %w", err)
	}
	return nil
}

// entryFor fills the record-derived fields of a journal entry.
func entryFor(event Event, session string, rec *Record) HistoryEntry {
	e := HistoryEntry{Event: event, Session: session}
	if rec != nil {
		e.LoopID = rec.LoopID
		e.Iteration = rec.Iteration
		e.MaxIterations = rec.MaxIterations
	}
	return e
}

// journal records e, logging instead of failing so that journaling never
// changes a loop decision.
func journal(ctx context.Context, h *HistoryStore, e HistoryEntry) {
	if h == nil {
		return
	}
	if err := h.Add(ctx, e); err != nil {
		logger.Warn().Err(err).Str("event", string(e.Event)).Msg("failed to record loop history")
	}
}
