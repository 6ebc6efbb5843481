package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
	"github.com/charliek/netscope/internal/filter"
)

// List command flags
var (
	listSource  sourceFlags
	listSearch  string
	listMethod  string
	listStatus  int
	listLimit   int
	listJSON    bool
	listNoColor bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print requests matching a filter",
	Long: `Print requests matching a filter.

Reads a capture file directly with --source, otherwise queries a running
'netscope serve'. All given predicates must match.

Examples:
  netscope list -s session.har --search users
  netscope list --method POST --status 500
  netscope list --search getuser --json`,
	RunE: runList,
}

// filtersCmd represents the filters command
var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Show the method and status selector options",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp := api.FiltersResponse{
			Methods:  domain.MethodOptions(),
			Statuses: domain.StatusOptions(),
		}
		printer := NewRequestPrinter(cmd.OutOrStdout(), false)
		if filtersJSON {
			return printer.encode(resp)
		}
		printer.PrintFilters(resp)
		return nil
	},
}

var filtersJSON bool

func init() {
	listSource.register(listCmd, false)
	listCmd.Flags().StringVar(&listSearch, "search", "", "Text matched against URL and GraphQL operation")
	listCmd.Flags().StringVarP(&listMethod, "method", "m", domain.AnyMethod, "HTTP method (empty for any)")
	listCmd.Flags().IntVar(&listStatus, "status", domain.AnyStatus, "HTTP status code (0 for any)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", constants.DefaultRequestLimit, "Maximum requests to print, newest kept")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
	listCmd.Flags().BoolVar(&listNoColor, "no-color", false, "Disable colored status codes")

	filtersCmd.Flags().BoolVar(&filtersJSON, "json", false, "Print JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	criteria := domain.FilterCriteria{
		SearchText: listSearch,
		Method:     listMethod,
		StatusCode: listStatus,
	}
	if listLimit <= 0 || listLimit > constants.MaxRequestLimit {
		return fmt.Errorf("limit must be between 1 and %d", constants.MaxRequestLimit)
	}

	var resp api.RequestsResponse
	if listSource.file != "" {
		format, err := capture.ParseFormat(listSource.format)
		if err != nil {
			return err
		}
		records, err := capture.LoadFile(listSource.file, format)
		if err != nil {
			return err
		}
		page, matched := filter.ApplyLimit(records, criteria, listLimit)
		resp = api.ToRequestsResponse(page, len(records), criteria)
		resp.MatchedCount = matched
	} else {
		result, err := NewClient(apiAddr).GetRequests(criteria, listLimit)
		if err != nil {
			return err
		}
		resp = *result
	}

	printer := NewRequestPrinter(cmd.OutOrStdout(), !listNoColor)
	if listJSON {
		return printer.PrintJSON(resp)
	}
	return printer.PrintTable(resp)
}
