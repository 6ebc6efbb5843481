package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/logging"
	"github.com/charliek/netscope/internal/tui"
)

var tuiSource sourceFlags

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and filter requests interactively",
	Long: `Browse and filter requests interactively.

With a capture file the TUI works standalone. Without one it connects to a
running 'netscope serve' and follows its requests live.

Examples:
  netscope tui -s session.har          # Local file
  netscope tui -s session.har --watch  # Local file, reloaded on change
  netscope tui --addr http://127.0.0.1:5656`,
	RunE: runTUI,
}

func init() {
	tuiSource.register(tuiCmd, true)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tuiSource.apply(cfg)

	opts := tui.Options{SearchDebounce: cfg.TUI.SearchDebounceDuration()}

	// The TUI owns the terminal, so logging is silenced while it runs
	logger = logging.Discard()

	// Client mode when no local source is configured or --addr is given
	if cfg.Source.File == "" || (apiAddrExplicitlySet && tuiSource.file == "") {
		return tui.RunClient(NewClient(apiAddr), opts)
	}

	store := capture.NewStore(cfg.Source.Capacity)
	defer store.Close()

	format, err := loadSource(cfg, store)
	if err != nil {
		return err
	}

	if cfg.Source.Watch {
		watcher, err := capture.NewWatcher(cfg.Source.File, format, store, logger)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watcher.Run(ctx)
	}

	return tui.Run(store, opts)
}
