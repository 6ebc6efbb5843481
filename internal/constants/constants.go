// Package constants provides shared configuration values used across the netscope application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "netscope.yaml"

	// DefaultAPIHost is the default host for the API server
	DefaultAPIHost = "127.0.0.1"

	// DefaultAPIPort is the default port for the API server
	DefaultAPIPort = 5656

	// DefaultAPIAddress is the default API address for client connections
	DefaultAPIAddress = "http://127.0.0.1:5656"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "NETSCOPE_"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for API requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultReloadDelay coalesces bursts of file events into a single reload
	DefaultReloadDelay = 100 * time.Millisecond
)

// Request list limits
const (
	// DefaultRequestCapacity is the default number of requests kept by the store
	DefaultRequestCapacity = 1000

	// DefaultRequestLimit is the default number of requests returned by the API
	DefaultRequestLimit = 100

	// MaxRequestLimit is the maximum number of requests that can be requested
	// in a single API call
	MaxRequestLimit = 10000

	// MaxIngestBodySize caps the size of a POST /requests body
	MaxIngestBodySize = 8 * 1024 * 1024 // 8MB

	// DefaultSubscriptionBuffer is the default size for subscription buffers
	DefaultSubscriptionBuffer = 16
)

// File permissions
const (
	// DirPermissionPrivate is used for directories holding tokens
	DirPermissionPrivate = 0700

	// FilePermissionPrivate is used for token files
	FilePermissionPrivate = 0600
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)
