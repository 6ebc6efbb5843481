package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/daemon"
)

var statusJSON bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	RunE:  runStatus,
}

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server started in this directory",
	RunE:  runStop,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := NewClient(apiAddr).GetStatus()
	if err != nil {
		return fmt.Errorf("%w\nIs netscope running? Try 'netscope serve' first", err)
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	printStatus(cmd, status)
	return nil
}

func printStatus(cmd *cobra.Command, status *api.StatusResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status:      %s\n", status.Status)
	fmt.Fprintf(out, "Address:     %s\n", apiAddr)
	fmt.Fprintf(out, "Uptime:      %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Fprintf(out, "Requests:    %d/%d\n", status.RequestCount, status.Capacity)
	fmt.Fprintf(out, "Subscribers: %d\n", status.Subscribers)
	if status.Source != "" {
		fmt.Fprintf(out, "Source:      %s\n", status.Source)
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	state, err := daemon.Stop(cwd, constants.DefaultShutdownTimeout)
	if err != nil {
		if errors.Is(err, daemon.ErrNotRunning) {
			return fmt.Errorf("%w in %s", err, cwd)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "netscope stopped (pid %d)\n", state.PID)
	return nil
}
