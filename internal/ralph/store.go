package ralph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Store.Get when the key has no value.
var ErrNotFound = errors.New("not found")

// Store persists Loop State Records and the history journal under flat keys.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value at key atomically.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Locker is implemented by stores that can serialize read-modify-write
// sequences across processes.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// withLock runs fn while holding the store's lock, if it has one.
func withLock(ctx context.Context, store Store, fn func() error) error {
	locker, ok := store.(Locker)
	if !ok {
		return fn()
	}
	unlock, err := locker.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()
	return fn()
}

// validateKey rejects keys that would escape a flat namespace.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return fmt.Errorf("invalid store key %q", key)
	}
	return nil
}

// LoadRecord reads and decodes the record owned by session.
// A missing record yields ErrNotFound; a malformed one a *CorruptError.
func LoadRecord(ctx context.Context, store Store, session string) (*Record, error) {
	data, err := store.Get(ctx, RecordKey(session))
	if err != nil {
		return nil, err
	}
	return DecodeRecord(data)
}

// SaveRecord encodes rec and stores it under session's key.
func SaveRecord(ctx context.Context, store Store, session string, rec *Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, RecordKey(session), data); err != nil {
		return fmt.Errorf("writing loop state for session %s: %w", session, err)
	}
	return nil
}

// ListSessions returns the owning session of every stored record.
func ListSessions(ctx context.Context, store Store) ([]string, error) {
	keys, err := store.List(ctx, RecordPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing loop state: %w", err)
	}
	var sessions []string
	for _, key := range keys {
		if session, ok := ParseRecordKey(key); ok {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}
