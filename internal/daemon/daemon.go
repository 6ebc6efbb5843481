package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/charliek/netscope/internal/constants"
)

// EnvVar marks the re-executed background server process
const EnvVar = "_NETSCOPE_DAEMON"

// stopPollInterval is how often Stop checks whether the server has exited
const stopPollInterval = 50 * time.Millisecond

// IsDaemonChild reports whether this process is the detached server
func IsDaemonChild() bool {
	return os.Getenv(EnvVar) == "1"
}

// Detach re-executes the current binary with args in a new session and
// returns the child PID. The caller is expected to exit afterwards; only the
// child continues serving.
func Detach(args []string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("getting executable path: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Env = append(os.Environ(), EnvVar+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting background server: %w", err)
	}
	pid := cmd.Process.Pid

	// The child outlives us, so drop our handle without waiting
	_ = cmd.Process.Release()
	return pid, nil
}

// OpenLog opens the detached server log under dir for appending
func OpenLog(dir string) (*os.File, error) {
	if err := EnsureStateDir(dir); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(LogPath(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissionPrivate)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// IsRunning reports whether a server owns the state directory for dir.
// This is best effort: the server may exit right after the check.
func IsRunning(dir string) bool {
	if IsLocked(PIDPath(dir)) {
		return true
	}
	state, err := LoadState(dir)
	if err != nil {
		return false
	}
	return ProcessExists(state.PID)
}

// GetRunningState returns the state of the server running for dir.
// Returns ErrNotRunning if there is none.
func GetRunningState(dir string) (*State, error) {
	if !IsRunning(dir) {
		return nil, ErrNotRunning
	}
	return LoadState(dir)
}

// CleanupStaleFiles removes state left behind by a server that exited
// without cleaning up. Returns ErrAlreadyRunning if the server is alive.
func CleanupStaleFiles(dir string) error {
	if IsLocked(PIDPath(dir)) {
		return ErrAlreadyRunning
	}

	state, err := LoadState(dir)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return removeIfExists(PIDPath(dir), "PID file")
		}
		return err
	}
	if ProcessExists(state.PID) {
		return ErrAlreadyRunning
	}
	return CleanupStateDir(dir)
}

// Stop sends SIGTERM to the server running for dir and waits up to timeout
// for it to release the PID file
func Stop(dir string, timeout time.Duration) (*State, error) {
	state, err := GetRunningState(dir)
	if err != nil {
		return nil, err
	}

	process, err := os.FindProcess(state.PID)
	if err != nil {
		return nil, fmt.Errorf("finding server process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return nil, fmt.Errorf("signaling server (pid %d): %w", state.PID, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !IsLocked(PIDPath(dir)) && !ProcessExists(state.PID) {
			return state, nil
		}
		time.Sleep(stopPollInterval)
	}
	return state, fmt.Errorf("server (pid %d) did not stop within %s", state.PID, timeout)
}
