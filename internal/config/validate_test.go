package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/netscope/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"negative port", func(c *Config) { c.API.Port = -1 }, "api.port"},
		{"port too large", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"negative capacity", func(c *Config) { c.Source.Capacity = -5 }, "source.capacity"},
		{"unknown format", func(c *Config) { c.Source.Format = "csv" }, "source.format"},
		{"watch without file", func(c *Config) { c.Source.Watch = true }, "source.watch"},
		{"bad debounce", func(c *Config) { c.TUI.SearchDebounce = "soon" }, "tui.search_debounce"},
		{"negative debounce", func(c *Config) { c.TUI.SearchDebounce = "-1s" }, "must be non-negative"},
		{"watch with file", func(c *Config) {
			c.Source.Watch = true
			c.Source.File = "capture.har"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.API.Port = -1
	cfg.Source.Capacity = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.port")
	assert.Contains(t, err.Error(), "source.capacity")
}
