package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charliek/netscope/internal/constants"
)

// File names inside the per-directory state directory
const (
	StateDirName  = ".netscope"
	StateFileName = "server.json"
	PIDFileName   = "server.pid"
	LogFileName   = "server.log"
)

// State describes a running server so client commands can find it.
// The server writes it once after the API listener is up.
type State struct {
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	Capacity  int       `json:"capacity"`
}

// Address returns the API base URL of the server
func (s *State) Address() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

func (s *State) validate() error {
	switch {
	case s.PID <= 0:
		return fmt.Errorf("invalid PID: %d", s.PID)
	case s.Port < 1 || s.Port > 65535:
		return fmt.Errorf("invalid port: %d", s.Port)
	case s.Host == "":
		return fmt.Errorf("host cannot be empty")
	case s.Capacity < 0:
		return fmt.Errorf("invalid capacity: %d", s.Capacity)
	}
	return nil
}

// Write stores the state under dir, replacing any previous state
func (s *State) Write(dir string) error {
	if err := s.validate(); err != nil {
		return err
	}
	if err := EnsureStateDir(dir); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	// Write then rename so readers never see a partial file
	tmp := StatePath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, constants.FilePermissionPrivate); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, StatePath(dir)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// LoadState reads the state stored under dir
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(StatePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	return &state, nil
}

// RemoveState deletes the state file under dir
func RemoveState(dir string) error {
	return removeIfExists(StatePath(dir), "state file")
}

// StateDir returns the state directory for dir, or for the working
// directory when dir is empty
func StateDir(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return StateDirName
		}
		dir = wd
	}
	return filepath.Join(dir, StateDirName)
}

// StatePath returns the state file path for dir
func StatePath(dir string) string {
	return filepath.Join(StateDir(dir), StateFileName)
}

// PIDPath returns the PID file path for dir
func PIDPath(dir string) string {
	return filepath.Join(StateDir(dir), PIDFileName)
}

// LogPath returns the detached server log path for dir
func LogPath(dir string) string {
	return filepath.Join(StateDir(dir), LogFileName)
}

// EnsureStateDir creates the state directory for dir
func EnsureStateDir(dir string) error {
	if err := os.MkdirAll(StateDir(dir), constants.DirPermissionPrivate); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// CleanupStateDir removes the state and PID files. The log is kept.
func CleanupStateDir(dir string) error {
	if err := RemoveState(dir); err != nil {
		return err
	}
	return removeIfExists(PIDPath(dir), "PID file")
}

func removeIfExists(path, what string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", what, err)
	}
	return nil
}
