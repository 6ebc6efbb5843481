package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/netscope/internal/logging"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"method":"GET","url":"/one"}]`), 0644))

	store := NewStore(10)
	w, err := NewWatcher(path, FormatAuto, store, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	sub := store.Subscribe()
	defer store.Unsubscribe(sub.ID)

	require.NoError(t, os.WriteFile(path, []byte(`[{"method":"GET","url":"/one"},{"method":"POST","url":"/two"}]`), 0644))

	select {
	case snap := <-sub.Ch:
		require.Len(t, snap, 2)
		assert.Equal(t, "/two", snap[1].URL)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_ReloadKeepsSnapshotOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"method":"GET","url":"/one"}]`), 0644))

	store := NewStore(10)
	w, err := NewWatcher(path, FormatAuto, store, logging.Discard())
	require.NoError(t, err)
	defer w.watcher.Close()

	w.Reload()
	require.Equal(t, 1, store.Count())

	require.NoError(t, os.WriteFile(path, []byte(`[{`), 0644))
	w.Reload()
	assert.Equal(t, 1, store.Count())
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "capture.har"), FormatAuto, NewStore(1), logging.Discard())
	assert.Error(t, err)
}
