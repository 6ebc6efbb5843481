package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/charliek/netscope/internal/constants"
)

// PIDFile is a lock-guarded PID file. Holding the lock marks the server
// as running, even if the state file is stale.
//
// A PIDFile is not safe for concurrent use.
type PIDFile struct {
	path string
	lock *flock.Flock
}

// NewPIDFile creates a PIDFile for path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file location
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire locks the PID file and writes the current PID to it.
// Returns ErrPIDFileLocked if another process holds the lock.
func (p *PIDFile) Acquire() error {
	if p.lock != nil {
		return nil
	}

	lock := flock.New(p.path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking PID file: %w", err)
	}
	if !locked {
		return ErrPIDFileLocked
	}

	// The lock lives on its own descriptor, so writing through another is fine
	pid := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(pid), constants.FilePermissionPrivate); err != nil {
		_ = lock.Unlock()
		return fmt.Errorf("writing PID: %w", err)
	}

	p.lock = lock
	return nil
}

// Release unlocks and removes the PID file. Releasing twice is a no-op.
func (p *PIDFile) Release() error {
	if p.lock == nil {
		return nil
	}

	_ = p.lock.Unlock()
	p.lock = nil

	return removeIfExists(p.path, "PID file")
}

// IsLocked reports whether another process holds the lock on path
func IsLocked(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	lock := flock.New(path)
	defer func() { _ = lock.Close() }()
	locked, err := lock.TryRLock()
	if err != nil {
		return false
	}
	return !locked
}

// ReadPID reads the PID stored in path
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing PID: %w", err)
	}
	return pid, nil
}

// ProcessExists reports whether pid names a live process.
// Signal 0 probes without delivering anything; EPERM still means it exists.
func ProcessExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
