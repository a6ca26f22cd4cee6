package ralph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/schmitthub/ralphloop/internal/logger"
)

// watchDebounce coalesces the create/write/rename burst of one atomic write.
const watchDebounce = 100 * time.Millisecond

// Watch calls onChange whenever a record or the journal in the store
// directory changes, until ctx is done. The directory is created if needed.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("state dir changed")
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("state dir watcher error")
		case <-timer.C:
			onChange()
		}
	}
}

// watched reports whether a path is a record or the journal, skipping the
// lock file and temp files of in-flight writes.
func watched(path string) bool {
	base := filepath.Base(path)
	if base == HistoryKey {
		return true
	}
	_, ok := ParseRecordKey(base)
	return ok
}
