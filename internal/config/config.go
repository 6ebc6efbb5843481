package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
)

// Config represents the top-level netscope configuration
type Config struct {
	API     APIConfig    `yaml:"api" toml:"api"`
	EnvFile string       `yaml:"env_file" toml:"env_file"`
	Source  SourceConfig `yaml:"source" toml:"source"`
	TUI     TUIConfig    `yaml:"tui" toml:"tui"`
}

// APIConfig defines the HTTP API configuration
type APIConfig struct {
	Port  int    `yaml:"port" toml:"port"`
	Host  string `yaml:"host" toml:"host"`
	Auth  *bool  `yaml:"auth,omitempty" toml:"auth,omitempty"` // nil = auto-determine based on host
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`
}

// SourceConfig defines where captured requests are read from
type SourceConfig struct {
	File     string `yaml:"file" toml:"file"`
	Format   string `yaml:"format" toml:"format"` // har, json, yaml or empty for auto-detect
	Watch    bool   `yaml:"watch" toml:"watch"`
	Capacity int    `yaml:"capacity" toml:"capacity"`
}

// TUIConfig defines interactive panel settings
type TUIConfig struct {
	// SearchDebounce delays applying search keystrokes, e.g. "150ms".
	// Empty or "0" applies every keystroke immediately.
	SearchDebounce string `yaml:"search_debounce" toml:"search_debounce"`
}

// SearchDebounceDuration returns the parsed debounce interval.
// Validate rejects unparseable values, so errors here resolve to zero.
func (t TUIConfig) SearchDebounceDuration() time.Duration {
	if t.SearchDebounce == "" {
		return 0
	}
	d, err := time.ParseDuration(t.SearchDebounce)
	if err != nil {
		return 0
	}
	return d
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// APIAddress returns the base URL clients should use to reach the API
func (c *Config) APIAddress() string {
	return fmt.Sprintf("http://%s:%d", c.API.Host, c.API.Port)
}

// Load reads and parses a configuration file. Files ending in .toml are
// parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	// First check if file exists
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	// Check file permissions for security
	if err := CheckFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return finish(&config)
}

// ParseTOML parses configuration from TOML bytes
func ParseTOML(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing toml: %w", err)
	}
	return finish(&config)
}

func finish(config *Config) (*Config, error) {
	applyDefaults(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.API.Port == 0 {
		config.API.Port = constants.DefaultAPIPort
	}
	if config.API.Host == "" {
		config.API.Host = constants.DefaultAPIHost
	}
	if config.Source.Capacity == 0 {
		config.Source.Capacity = constants.DefaultRequestCapacity
	}
}
