package daemon

import "errors"

var (
	// ErrStateNotFound is returned when no instance state file exists
	ErrStateNotFound = errors.New("instance state not found")
	// ErrAlreadyRunning is returned when a server already owns the state directory
	ErrAlreadyRunning = errors.New("netscope server is already running")
	// ErrNotRunning is returned when no server owns the state directory
	ErrNotRunning = errors.New("netscope server is not running")
	// ErrPIDFileLocked is returned when another process holds the PID file lock
	ErrPIDFileLocked = errors.New("PID file is locked by another process")
)
