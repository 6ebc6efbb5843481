package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges multiple environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// ProcessEnv returns the current process environment as a map
func ProcessEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// LoadWithEnv loads the config file at path and applies environment overrides.
// Priority (lowest to highest):
// 1. Config file (or defaults if optional and missing)
// 2. env_file variables
// 3. Process environment
//
// When optional is true a missing config file is not an error.
func LoadWithEnv(path string, optional bool, processEnv map[string]string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !optional || !errors.Is(err, domain.ErrConfigNotFound) {
			return nil, err
		}
		cfg = Default()
	}

	var fileEnv map[string]string
	if cfg.EnvFile != "" {
		fileEnv, err = LoadEnvFile(resolvePath(cfg.EnvFile, filepath.Dir(path)))
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := ApplyEnv(cfg, MergeEnv(fileEnv, processEnv)); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	// Relative source paths are relative to the config file
	if cfg.Source.File != "" {
		cfg.Source.File = resolvePath(cfg.Source.File, filepath.Dir(path))
	}

	return cfg, nil
}

// ApplyEnv overrides config values from NETSCOPE_* variables
func ApplyEnv(cfg *Config, env map[string]string) error {
	get := func(name string) (string, bool) {
		v, ok := env[constants.EnvPrefix+name]
		return v, ok && v != ""
	}

	var errs []string

	if v, ok := get("API_HOST"); ok {
		cfg.API.Host = v
	}
	if v, ok := get("API_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sAPI_PORT: invalid port %q", constants.EnvPrefix, v))
		} else {
			cfg.API.Port = port
		}
	}
	if v, ok := get("API_TOKEN"); ok {
		cfg.API.Token = v
	}
	if v, ok := get("API_AUTH"); ok {
		auth, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sAPI_AUTH: invalid boolean %q", constants.EnvPrefix, v))
		} else {
			cfg.API.Auth = &auth
		}
	}
	if v, ok := get("SOURCE_FILE"); ok {
		cfg.Source.File = v
	}
	if v, ok := get("SOURCE_FORMAT"); ok {
		cfg.Source.Format = v
	}
	if v, ok := get("SOURCE_WATCH"); ok {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sSOURCE_WATCH: invalid boolean %q", constants.EnvPrefix, v))
		} else {
			cfg.Source.Watch = watch
		}
	}
	if v, ok := get("SOURCE_CAPACITY"); ok {
		capacity, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sSOURCE_CAPACITY: invalid integer %q", constants.EnvPrefix, v))
		} else {
			cfg.Source.Capacity = capacity
		}
	}
	if v, ok := get("TUI_SEARCH_DEBOUNCE"); ok {
		cfg.TUI.SearchDebounce = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	candidates := []string{
		"netscope.yaml",
		"netscope.yml",
		"netscope.toml",
		".netscope.yaml",
		".netscope.yml",
		".netscope.toml",
	}

	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w (tried: %v)", domain.ErrConfigNotFound, candidates)
}

// CheckFilePermissions checks if a file has secure permissions.
// On Unix-like systems, it verifies the file is not world-writable.
func CheckFilePermissions(path string) error {
	// Skip permission check on Windows
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking file permissions: %w", err)
	}

	// World-writable = others have write (0002)
	if info.Mode().Perm()&0002 != 0 {
		return fmt.Errorf("config file %s has insecure permissions: world-writable files can be modified by any user. Please run: chmod o-w %s", path, path)
	}

	return nil
}
