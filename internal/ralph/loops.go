package ralph

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/ralphloop/internal/logger"
)

// LoopStatus describes one stored record for inspection.
type LoopStatus struct {
	Session string  `json:"session"`
	Key     string  `json:"key"`
	Alive   bool    `json:"alive"`
	Current bool    `json:"current"`
	Record  *Record `json:"record,omitempty"`
	// Corrupt holds the decode error of an unreadable record.
	Corrupt string `json:"corrupt,omitempty"`
}

// ListLoops returns the status of every record in store, sorted by key.
// current may be empty when the caller's session is unknown.
func ListLoops(ctx context.Context, store Store, sessions Sessions, current string) ([]LoopStatus, error) {
	owners, err := ListSessions(ctx, store)
	if err != nil {
		return nil, err
	}
	loops := make([]LoopStatus, 0, len(owners))
	for _, owner := range owners {
		st := LoopStatus{
			Session: owner,
			Key:     RecordKey(owner),
			Alive:   sessions.Alive(owner),
			Current: owner == current,
		}
		rec, err := LoadRecord(ctx, store, owner)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case errors.Is(err, ErrCorrupt):
			st.Corrupt = err.Error()
		case err != nil:
			return nil, err
		default:
			st.Record = rec
		}
		loops = append(loops, st)
	}
	return loops, nil
}

// Cancel deletes the record owned by session. It reports false when there
// was nothing to cancel.
func Cancel(ctx context.Context, store Store, history *HistoryStore, session string) (bool, error) {
	var cancelled bool
	err := withLock(ctx, store, func() error {
		data, err := store.Get(ctx, RecordKey(session))
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading loop state: %w", err)
		}
		if err := store.Delete(ctx, RecordKey(session)); err != nil {
			return fmt.Errorf("removing loop state: %w", err)
		}
		cancelled = true

		// A corrupt record is still cancellable; the journal just lacks detail.
		rec, _ := DecodeRecord(data)
		journal(ctx, history, entryFor(EventCancelled, session, rec))
		return nil
	})
	return cancelled, err
}

// ReclaimStale deletes every record whose owner is no longer alive and
// returns the reclaimed sessions.
func ReclaimStale(ctx context.Context, store Store, sessions Sessions, history *HistoryStore) ([]string, error) {
	var reclaimed []string
	err := withLock(ctx, store, func() error {
		var err error
		reclaimed, _, err = reclaimLocked(ctx, store, sessions, history, "")
		return err
	})
	return reclaimed, err
}

// reclaimLocked deletes the records of dead owners other than current and
// reports whether current already owns a record. The caller holds the lock.
func reclaimLocked(ctx context.Context, store Store, sessions Sessions, history *HistoryStore, current string) ([]string, bool, error) {
	owners, err := ListSessions(ctx, store)
	if err != nil {
		return nil, false, err
	}
	var (
		reclaimed []string
		owned     bool
	)
	for _, owner := range owners {
		if owner == current {
			owned = true
			continue
		}
		if sessions.Alive(owner) {
			continue
		}
		if err := store.Delete(ctx, RecordKey(owner)); err != nil {
			return reclaimed, owned, fmt.Errorf("reclaiming stale loop state of session %s: %w", owner, err)
		}
		logger.Info().Str("owner", owner).Msg("reclaimed stale loop state")
		reclaimed = append(reclaimed, owner)
		journal(ctx, history, HistoryEntry{Event: EventReclaimed, Session: owner})
	}
	return reclaimed, owned, nil
}
