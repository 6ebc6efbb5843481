package daemon

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holdLock simulates a running server for dir
func holdLock(t *testing.T, dir string) *PIDFile {
	t.Helper()
	require.NoError(t, EnsureStateDir(dir))
	pf := NewPIDFile(PIDPath(dir))
	require.NoError(t, pf.Acquire())
	t.Cleanup(func() { _ = pf.Release() })
	return pf
}

// writeStale leaves behind state for a process that no longer exists
func writeStale(t *testing.T, dir string) {
	t.Helper()
	state := validState()
	state.PID = 4000000
	require.NoError(t, state.Write(dir))
	require.NoError(t, os.WriteFile(PIDPath(dir), []byte("4000000\n"), 0600))
}

func TestIsDaemonChild(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"true", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvVar, tt.value)
			assert.Equal(t, tt.want, IsDaemonChild())
		})
	}
}

func TestIsRunning(t *testing.T) {
	t.Run("no state", func(t *testing.T) {
		assert.False(t, IsRunning(t.TempDir()))
	})

	t.Run("PID file locked", func(t *testing.T) {
		dir := t.TempDir()
		holdLock(t, dir)
		assert.True(t, IsRunning(dir))
	})

	t.Run("stale state", func(t *testing.T) {
		dir := t.TempDir()
		writeStale(t, dir)
		assert.False(t, IsRunning(dir))
	})

	t.Run("state for a live process without lock", func(t *testing.T) {
		dir := t.TempDir()
		state := validState()
		state.PID = os.Getpid()
		require.NoError(t, state.Write(dir))
		assert.True(t, IsRunning(dir))
	})
}

func TestGetRunningState(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		_, err := GetRunningState(t.TempDir())
		assert.ErrorIs(t, err, ErrNotRunning)
	})

	t.Run("running", func(t *testing.T) {
		dir := t.TempDir()
		holdLock(t, dir)

		state := validState()
		state.PID = os.Getpid()
		state.Port = 7002
		require.NoError(t, state.Write(dir))

		loaded, err := GetRunningState(dir)
		require.NoError(t, err)
		assert.Equal(t, 7002, loaded.Port)
	})
}

func TestCleanupStaleFiles(t *testing.T) {
	t.Run("running server is left alone", func(t *testing.T) {
		dir := t.TempDir()
		holdLock(t, dir)
		assert.ErrorIs(t, CleanupStaleFiles(dir), ErrAlreadyRunning)
	})

	t.Run("stale files are removed", func(t *testing.T) {
		dir := t.TempDir()
		writeStale(t, dir)

		require.NoError(t, CleanupStaleFiles(dir))

		_, err := os.Stat(StatePath(dir))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(PIDPath(dir))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("orphan PID file without state is removed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, EnsureStateDir(dir))
		require.NoError(t, os.WriteFile(PIDPath(dir), []byte("4000000\n"), 0600))

		require.NoError(t, CleanupStaleFiles(dir))
		_, err := os.Stat(PIDPath(dir))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("nothing to clean", func(t *testing.T) {
		assert.NoError(t, CleanupStaleFiles(t.TempDir()))
	})
}

func TestStop_NotRunning(t *testing.T) {
	_, err := Stop(t.TempDir(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotRunning)

	dir := t.TempDir()
	writeStale(t, dir)
	_, err = Stop(dir, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestOpenLog(t *testing.T) {
	dir := t.TempDir()

	f, err := OpenLog(dir)
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Reopening appends
	f, err = OpenLog(dir)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(LogPath(dir))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	info, err := os.Stat(LogPath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
