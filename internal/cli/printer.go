package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
)

// RequestPrinter writes request listings as a table or JSON
type RequestPrinter struct {
	out   io.Writer
	color bool
}

// NewRequestPrinter creates a RequestPrinter. Color applies to table output only.
func NewRequestPrinter(out io.Writer, color bool) *RequestPrinter {
	return &RequestPrinter{out: out, color: color}
}

// PrintJSON writes the response as a single JSON document
func (p *RequestPrinter) PrintJSON(resp api.RequestsResponse) error {
	return p.encode(resp)
}

func (p *RequestPrinter) encode(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable writes the response as an aligned table with a summary line
func (p *RequestPrinter) PrintTable(resp api.RequestsResponse) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tMETHOD\tSTATUS\tDURATION\tURL")
	fmt.Fprintln(w, "--\t----\t------\t------\t--------\t---")

	for _, r := range resp.Requests {
		target := r.URL
		if r.GQLOperation != "" {
			target += " [" + r.GQLOperation + "]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
			r.ID, shortTime(r.Timestamp), r.Method, p.status(r.StatusCode), r.DurationMs, target)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d of %d requests (%s)",
		resp.FilteredCount, resp.TotalCount, describeCriteria(resp.Criteria))
	if hidden := resp.MatchedCount - resp.FilteredCount; hidden > 0 {
		summary += fmt.Sprintf(", %d older matches hidden by the limit", hidden)
	}
	_, err := fmt.Fprintf(p.out, "\n%s\n", summary)
	return err
}

// status renders a status code, colored by class when enabled
func (p *RequestPrinter) status(code int) string {
	text := fmt.Sprintf("%d", code)
	if !p.color {
		return text
	}

	color := constants.ColorGreen
	switch {
	case code < 200:
		color = constants.ColorGray
	case code >= 500:
		color = constants.ColorRed
	case code >= 400:
		color = constants.ColorYellow
	case code >= 300:
		color = constants.ColorCyan
	}
	return color + text + constants.ColorReset
}

// PrintFilters writes the selector options
func (p *RequestPrinter) PrintFilters(resp api.FiltersResponse) {
	fmt.Fprintln(p.out, "Methods:")
	for _, m := range resp.Methods {
		fmt.Fprintf(p.out, "  %-8q %s\n", m.Key, m.Label)
	}
	fmt.Fprintln(p.out, "Statuses:")
	for _, s := range resp.Statuses {
		fmt.Fprintf(p.out, "  %-8d %s\n", s.Key, s.Label)
	}
}

// shortTime trims an RFC 3339 timestamp to its clock time
func shortTime(ts string) string {
	if len(ts) >= 19 {
		return ts[11:19]
	}
	if ts == "" {
		return "-"
	}
	return ts
}

// describeCriteria summarizes the criteria a listing was filtered with
func describeCriteria(c api.CriteriaResponse) string {
	search := "any text"
	if c.Search != "" {
		search = fmt.Sprintf("search %q", c.Search)
	}
	return fmt.Sprintf("%s, %s, %s", search, domain.MethodLabel(c.Method), domain.StatusLabel(c.StatusCode))
}
