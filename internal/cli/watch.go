package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/domain"
)

// Watch command flags
var (
	watchSearch string
	watchMethod string
	watchStatus int
	watchJSON   bool
	watchCount  int
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the filtered requests of a running server",
	Long: `Follow the filtered requests of a running 'netscope serve'.

A summary line is printed on connect and again whenever the server's
requests change. With --json each snapshot is printed as one JSON line.

Examples:
  netscope watch --status 500
  netscope watch --method POST --json --count 1`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSearch, "search", "", "Text matched against URL and GraphQL operation")
	watchCmd.Flags().StringVarP(&watchMethod, "method", "m", domain.AnyMethod, "HTTP method (empty for any)")
	watchCmd.Flags().IntVar(&watchStatus, "status", domain.AnyStatus, "HTTP status code (0 for any)")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print each snapshot as a JSON line")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many snapshots (0 to follow forever)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchCount < 0 {
		return fmt.Errorf("count must not be negative")
	}
	criteria := domain.FilterCriteria{
		SearchText: watchSearch,
		Method:     watchMethod,
		StatusCode: watchStatus,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	seen := 0
	var printErr error

	err := NewClient(apiAddr).WatchRequests(ctx, criteria, nil, func(resp api.RequestsResponse) {
		if printErr != nil {
			return
		}
		if watchJSON {
			printErr = enc.Encode(resp)
		} else {
			_, printErr = fmt.Fprintln(out, summaryLine(time.Now(), resp))
		}

		seen++
		if printErr != nil || (watchCount > 0 && seen >= watchCount) {
			cancel()
		}
	})
	if err != nil {
		return fmt.Errorf("%w\nIs netscope running? Try 'netscope serve' first", err)
	}
	return printErr
}

// summaryLine describes one snapshot along with its newest match
func summaryLine(now time.Time, resp api.RequestsResponse) string {
	line := fmt.Sprintf("%s  %d of %d requests (%s)",
		now.Format("15:04:05"), resp.FilteredCount, resp.TotalCount, describeCriteria(resp.Criteria))
	if n := len(resp.Requests); n > 0 {
		last := resp.Requests[n-1]
		line += fmt.Sprintf("  latest: %s %s %d", last.Method, last.URL, last.StatusCode)
	}
	return line
}
