package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charliek/netscope/internal/config"
	"github.com/charliek/netscope/internal/constants"
)

const tokenFileName = "token"

// userDir returns the per-user netscope directory (~/.netscope).
// Server state lives per working directory in internal/daemon instead.
func userDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netscope"
	}
	return filepath.Join(home, ".netscope")
}

func tokenPath() string {
	return filepath.Join(userDir(), tokenFileName)
}

// serverAuth is the resolved authentication setup for serve
type serverAuth struct {
	Enabled bool
	Token   string
	Saved   bool // Token was generated and written to tokenPath
}

// resolveAuth decides whether the API requires a token and which one.
// An explicit api.token wins, then a previously saved token, then a new one
// that is saved for client commands to pick up.
func resolveAuth(cfg *config.Config) (serverAuth, error) {
	if !isAuthRequired(cfg) {
		return serverAuth{}, nil
	}
	if cfg.API.Token != "" {
		return serverAuth{Enabled: true, Token: cfg.API.Token}, nil
	}
	if token, err := readTokenFile(); err == nil && token != "" {
		return serverAuth{Enabled: true, Token: token}, nil
	}

	token, err := generateToken()
	if err != nil {
		return serverAuth{}, fmt.Errorf("generating auth token: %w", err)
	}
	if err := saveToken(token); err != nil {
		return serverAuth{}, err
	}
	return serverAuth{Enabled: true, Token: token, Saved: true}, nil
}

// isAuthRequired reports whether the API needs a token. An explicit api.auth
// wins; otherwise only non-local binds require one.
func isAuthRequired(cfg *config.Config) bool {
	if cfg.API.Auth != nil {
		return *cfg.API.Auth
	}
	return !isLocalhost(cfg.API.Host)
}

func isLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// generateToken returns 32 random bytes, hex encoded
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// saveToken replaces the saved token. The file is written next to its final
// path and renamed so readers never see a partial token.
func saveToken(token string) error {
	if err := os.MkdirAll(userDir(), constants.DirPermissionPrivate); err != nil {
		return fmt.Errorf("creating %s: %w", userDir(), err)
	}

	tmp := tokenPath() + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), constants.FilePermissionPrivate); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, tokenPath()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// loadToken returns the token client commands send, preferring
// NETSCOPE_API_TOKEN over the saved token
func loadToken() (string, error) {
	if token := os.Getenv(constants.EnvPrefix + "API_TOKEN"); token != "" {
		return token, nil
	}
	return readTokenFile()
}

func readTokenFile() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
