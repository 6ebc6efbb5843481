package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/config"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/daemon"
	"github.com/charliek/netscope/internal/logging"
)

// Serve command flags
var (
	serveSource sourceFlags
	servePort   int
	serveDetach bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the request store and HTTP API",
	Long: `Run the request store and HTTP API.

Requests come from an optional capture file and from POST /api/v1/requests.
With --watch the capture file is reloaded whenever it changes.

Examples:
  netscope serve                          # Empty store, ingest via API
  netscope serve -s session.har --watch   # Serve a HAR file and follow edits
  netscope serve --port 7000
  netscope serve -s session.har -d        # Run in the background`,
	RunE: runServe,
}

func init() {
	serveSource.register(serveCmd, true)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "API port (overrides config)")
	serveCmd.Flags().BoolVarP(&serveDetach, "detach", "d", false, "Run in the background, logging to .netscope/server.log")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	serveSource.apply(cfg)
	if servePort != 0 {
		cfg.API.Port = servePort
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	if serveDetach && !daemon.IsDaemonChild() {
		return detachServe(cmd, cwd)
	}
	if daemon.IsDaemonChild() {
		logFile, err := daemon.OpenLog(cwd)
		if err != nil {
			return err
		}
		defer logFile.Close()
		format, _ := logging.ParseFormat(logFormat)
		logger = logging.New(logFile, format, verbose)
		middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  log.New(logFile, "", log.LstdFlags),
			NoColor: true,
		})
	}

	// One server per state directory
	if err := daemon.CleanupStaleFiles(cwd); err != nil {
		return err
	}
	if err := daemon.EnsureStateDir(cwd); err != nil {
		return err
	}
	pidFile := daemon.NewPIDFile(daemon.PIDPath(cwd))
	if err := pidFile.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrPIDFileLocked) {
			return daemon.ErrAlreadyRunning
		}
		return err
	}
	defer pidFile.Release()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := capture.NewStore(cfg.Source.Capacity)
	defer store.Close()

	if cfg.Source.File != "" {
		format, err := loadSource(cfg, store)
		if err != nil {
			return err
		}
		if cfg.Source.Watch {
			watcher, err := capture.NewWatcher(cfg.Source.File, format, store, logger)
			if err != nil {
				return err
			}
			go watcher.Run(ctx)
			logger.Info("watching capture file", "file", cfg.Source.File)
		}
	}

	auth, err := resolveAuth(cfg)
	if err != nil {
		return err
	}
	if !auth.Enabled && !isLocalhost(cfg.API.Host) {
		logger.Warn("auth disabled while binding to a non-local interface", "host", cfg.API.Host)
	}

	handlers := api.NewHandlers(store, cfg.Source.File, logger)
	apiServer := api.NewServer(api.ServerConfig{
		Host:        cfg.API.Host,
		Port:        cfg.API.Port,
		AuthEnabled: auth.Enabled,
		Token:       auth.Token,
	}, handlers)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	state := &daemon.State{
		PID:       os.Getpid(),
		Host:      cfg.API.Host,
		Port:      cfg.API.Port,
		StartedAt: time.Now(),
		Source:    cfg.Source.File,
		Capacity:  store.Capacity(),
	}
	if err := state.Write(cwd); err != nil {
		logger.Warn("failed to write server state", "error", err)
	}
	defer daemon.RemoveState(cwd)

	logger.Info("API server started",
		"addr", "http://"+apiServer.Addr(),
		"auth", auth.Enabled,
		"capacity", store.Capacity())
	if auth.Saved {
		logger.Info("auth token saved", "path", tokenPath())
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	// Close subscriptions first so open streams end
	store.Close()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// detachServe re-runs serve in the background and reports the child PID
func detachServe(cmd *cobra.Command, cwd string) error {
	if err := daemon.CleanupStaleFiles(cwd); err != nil {
		return err
	}
	pid, err := daemon.Detach(os.Args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "netscope started (pid %d), logs in %s\n", pid, daemon.LogPath(cwd))
	return nil
}
