package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/config"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/daemon"
	"github.com/charliek/netscope/internal/logging"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath           string
	configExplicitlySet  bool
	apiAddr              string
	apiAddrExplicitlySet bool
	verbose              bool
	logFormat            string
)

// logger is configured from --verbose and --log-format before any command runs
var logger = logging.Discard()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "netscope",
	Short: "Inspect and filter captured HTTP requests",
	Long: `netscope loads captured HTTP traffic and lets you narrow it down
by free text, HTTP method and response status. It supports:
  - HAR, JSON and YAML capture files, reloaded on change
  - An HTTP API with live filtered streams
  - Interactive TUI with search and selectors
  - One-shot filtered listings for scripts`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, format, verbose)
		slog.SetDefault(logger)

		configExplicitlySet = cmd.Flags().Changed("config")
		if !configExplicitlySet {
			if found, err := config.FindConfigFile(); err == nil {
				configPath = found
			}
		}
		apiAddrExplicitlySet = cmd.Flags().Changed("addr")

		// Client commands read the API address from config unless --addr is given
		if !apiAddrExplicitlySet {
			apiAddr = discoverAPIAddress()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "netscope version %s\n", Version)
	},
}

func init() {
	// Persistent flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", constants.DefaultAPIAddress, "API address for client commands")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatText), "Log format (text or json)")

	// Set version template
	rootCmd.SetVersionTemplate("netscope version {{.Version}}\n")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig loads the config file with env overrides.
// The default config file is optional, an explicit --config is not.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath, !configExplicitlySet, config.ProcessEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadAPIAddrFromConfig attempts to read the API address from the config file.
// Returns empty string if config doesn't exist or can't be read.
func loadAPIAddrFromConfig() string {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "" // Config doesn't exist or is invalid, use default
	}
	return cfg.APIAddress()
}

// discoverAPIAddress attempts to discover the API address.
// Priority:
// 1. State file (.netscope/server.json) - for a server running here
// 2. Config file (netscope.yaml) - for configured host and port
// 3. Default address
func discoverAPIAddress() string {
	if cwd, err := os.Getwd(); err == nil {
		if state, err := daemon.GetRunningState(cwd); err == nil {
			return state.Address()
		}
	}
	if addr := loadAPIAddrFromConfig(); addr != "" {
		return addr
	}
	return constants.DefaultAPIAddress
}

// sourceFlags are shared by commands that can read a capture file directly
type sourceFlags struct {
	file   string
	format string
	watch  bool
}

func (f *sourceFlags) register(cmd *cobra.Command, withWatch bool) {
	cmd.Flags().StringVarP(&f.file, "source", "s", "", "Capture file to load (HAR, JSON or YAML)")
	cmd.Flags().StringVar(&f.format, "format", "", "Capture file format (har, json, yaml; default: detect)")
	if withWatch {
		cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Reload the capture file when it changes")
	}
}

// apply overrides the config source section with any flags given
func (f *sourceFlags) apply(cfg *config.Config) {
	if f.file != "" {
		cfg.Source.File = f.file
	}
	if f.format != "" {
		cfg.Source.Format = f.format
	}
	if f.watch {
		cfg.Source.Watch = true
	}
}

// loadSource reads the configured capture file into store
func loadSource(cfg *config.Config, store *capture.Store) (capture.Format, error) {
	format, err := capture.ParseFormat(cfg.Source.Format)
	if err != nil {
		return "", err
	}

	records, err := capture.LoadFile(cfg.Source.File, format)
	if err != nil {
		return "", err
	}
	store.Replace(records)

	logger.Info("capture file loaded", "file", cfg.Source.File, "requests", len(records), "kept", store.Count())
	return format, nil
}
