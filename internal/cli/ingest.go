package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliek/netscope/internal/capture"
)

// Ingest command flags
var (
	ingestFormat string
	ingestClear  bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Send a capture file to a running server",
	Long: `Send a capture file to a running 'netscope serve'.

Requests are appended to the server's store. Use --clear to replace what
the server already holds.

Examples:
  netscope ingest session.har
  netscope ingest requests.yaml --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "", "Capture file format (har, json, yaml; default: detect)")
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "Clear the server's requests first")
}

func runIngest(cmd *cobra.Command, args []string) error {
	format, err := capture.ParseFormat(ingestFormat)
	if err != nil {
		return err
	}
	records, err := capture.LoadFile(args[0], format)
	if err != nil {
		return err
	}

	source := make([]capture.SourceRecord, len(records))
	for i, r := range records {
		source[i] = capture.FromRecord(r)
	}

	client := NewClient(apiAddr)
	if ingestClear {
		if err := client.Clear(); err != nil {
			return fmt.Errorf("clearing requests: %w", err)
		}
	}

	resp, err := client.Ingest(source)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d requests from %s\n", resp.Accepted, args[0])
	return nil
}
