package ralph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeImplementations(t *testing.T) map[string]Store {
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), ".claude")),
		"memory": NewMemoryStore(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "ralph-loop.1.local.md")
			assert.True(t, errors.Is(err, ErrNotFound))

			keys, err := store.List(ctx, RecordPrefix)
			require.NoError(t, err)
			assert.Empty(t, keys)

			require.NoError(t, store.Put(ctx, "ralph-loop.2.local.md", []byte("two")))
			require.NoError(t, store.Put(ctx, "ralph-loop.1.local.md", []byte("one")))
			require.NoError(t, store.Put(ctx, "unrelated.txt", []byte("x")))

			got, err := store.Get(ctx, "ralph-loop.1.local.md")
			require.NoError(t, err)
			assert.Equal(t, "one", string(got))

			require.NoError(t, store.Put(ctx, "ralph-loop.1.local.md", []byte("uno")))
			got, err = store.Get(ctx, "ralph-loop.1.local.md")
			require.NoError(t, err)
			assert.Equal(t, "uno", string(got))

			keys, err = store.List(ctx, RecordPrefix)
			require.NoError(t, err)
			assert.Equal(t, []string{"ralph-loop.1.local.md", "ralph-loop.2.local.md"}, keys)

			require.NoError(t, store.Delete(ctx, "ralph-loop.1.local.md"))
			require.NoError(t, store.Delete(ctx, "ralph-loop.1.local.md"), "deleting twice is not an error")
			_, err = store.Get(ctx, "ralph-loop.1.local.md")
			assert.True(t, errors.Is(err, ErrNotFound))

			assert.Error(t, store.Put(ctx, "../escape", []byte("x")))
		})
	}
}

func TestStoreLockIsExclusive(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			locker, ok := store.(Locker)
			require.True(t, ok)

			unlock, err := locker.Lock(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()
			_, err = locker.Lock(ctx)
			assert.Error(t, err, "second lock must wait for the first")

			require.NoError(t, unlock())
			unlock2, err := locker.Lock(context.Background())
			require.NoError(t, err)
			require.NoError(t, unlock2())
		})
	}
}

func TestWithLockSerializesReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := testRecord()
	rec.MaxIterations = 1000
	require.NoError(t, SaveRecord(ctx, store, "s", rec))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := withLock(ctx, store, func() error {
				r, err := LoadRecord(ctx, store, "s")
				if err != nil {
					return err
				}
				r.Iteration++
				return SaveRecord(ctx, store, "s", r)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := LoadRecord(ctx, store, "s")
	require.NoError(t, err)
	assert.Equal(t, 21, got.Iteration)
}

func TestFileStore_Files(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", ".claude")
	store := NewFileStore(dir)
	assert.Equal(t, dir, store.Dir())

	require.NoError(t, store.Put(ctx, "ralph-loop.7.local.md", []byte("content")))

	info, err := os.Stat(store.Path("ralph-loop.7.local.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp files must not be left behind")
	}

	unlock, err := store.Lock(ctx)
	require.NoError(t, err)
	require.NoError(t, unlock())
	_, err = os.Stat(filepath.Join(dir, LockFileName))
	assert.NoError(t, err)

	keys, err := ListSessions(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, keys, "lock file is not a record")
}

func TestFileStore_ListSkipsDirectories(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ralph-loop.9.local.md"), 0o755))

	keys, err := NewFileStore(dir).List(ctx, RecordPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStore_LockTimeout(t *testing.T) {
	dir := t.TempDir()
	holder := NewFileStore(dir)
	unlock, err := holder.Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	waiter := NewFileStore(dir)
	waiter.lockTimeout = 200 * time.Millisecond
	_, err = waiter.Lock(context.Background())
	assert.Error(t, err)
}
