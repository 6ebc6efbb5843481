package integration

import (
	"bytes"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testAPIPort = "15656"
	testAPIAddr = "http://127.0.0.1:15656"
)

// captureJSON is a small JSON capture file shared by the tests
const captureJSON = `[
  {"id": "1", "timestamp": "2026-01-02T10:00:01Z", "method": "GET", "url": "https://example.com/api/users", "status_code": 200, "duration_ms": 12},
  {"id": "2", "timestamp": "2026-01-02T10:00:02Z", "method": "POST", "url": "https://example.com/api/orders", "status_code": 500, "duration_ms": 40},
  {"id": "g", "timestamp": "2026-01-02T10:00:03Z", "method": "POST", "url": "https://example.com/graphql", "gql_operation": "GetUser", "status_code": 200, "duration_ms": 8}
]`

var (
	buildOnce   sync.Once
	builtBinary string
	buildErr    error
	buildOutput []byte
)

// buildBinary builds the netscope binary once per test run and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			buildErr = err
			return
		}
		projectRoot := filepath.Join(wd, "..", "..")

		dir, err := os.MkdirTemp("", "netscope-integration")
		if err != nil {
			buildErr = err
			return
		}
		builtBinary = filepath.Join(dir, "netscope")

		cmd := exec.Command("go", "build", "-o", builtBinary, "./cmd/netscope")
		cmd.Dir = projectRoot
		buildOutput, buildErr = cmd.CombinedOutput()
	})

	require.NoError(t, buildErr, "failed to build binary:\n%s", buildOutput)
	return builtBinary
}

// workspace creates a temp working directory holding the shared capture file
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "capture.json"), []byte(captureJSON), 0600))
	return dir
}

// command prepares a netscope invocation in dir with an isolated HOME
func command(binary, dir string, args ...string) *exec.Cmd {
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+dir, "NETSCOPE_API_TOKEN=")
	return cmd
}

// startNetscope starts a long-running netscope command in dir
func startNetscope(t *testing.T, binary, dir string, args ...string) *exec.Cmd {
	t.Helper()

	cmd := command(binary, dir, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start(), "failed to start netscope")

	t.Cleanup(func() { killNetscope(cmd) })
	return cmd
}

// runNetscope runs a one-shot netscope command in dir and returns its stdout
func runNetscope(t *testing.T, binary, dir string, args ...string) string {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := command(binary, dir, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run(), "netscope %v failed: %s", args, stderr.String())
	return stdout.String()
}

// killNetscope forcefully kills a netscope process
func killNetscope(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

// waitForAPI waits for the API to be ready
func waitForAPI(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("API did not become ready within %v", timeout)
}

// waitForFile waits for path to exist
func waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("%s was not created within %v", path, timeout)
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
