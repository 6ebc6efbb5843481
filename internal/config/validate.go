package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charliek/netscope/internal/domain"
)

var validSourceFormats = map[string]bool{
	"":     true,
	"auto": true,
	"har":  true,
	"json": true,
	"yaml": true,
	"yml":  true,
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	var errs []string

	// Validate API config
	if config.API.Port < 0 || config.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port: must be between 0 and 65535, got %d", config.API.Port))
	}

	// Validate source
	if config.Source.Capacity < 0 {
		errs = append(errs, fmt.Sprintf("source.capacity: must be non-negative, got %d", config.Source.Capacity))
	}
	if !validSourceFormats[strings.ToLower(config.Source.Format)] {
		errs = append(errs, fmt.Sprintf("source.format: unsupported format %q (expected har, json or yaml)", config.Source.Format))
	}
	if config.Source.Watch && config.Source.File == "" {
		errs = append(errs, "source.watch: requires source.file")
	}

	// Validate TUI
	if config.TUI.SearchDebounce != "" {
		d, err := time.ParseDuration(config.TUI.SearchDebounce)
		if err != nil {
			errs = append(errs, fmt.Sprintf("tui.search_debounce: %v", err))
		} else if d < 0 {
			errs = append(errs, "tui.search_debounce: must be non-negative")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}
