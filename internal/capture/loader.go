package capture

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/charliek/netscope/internal/domain"
)

// Format identifies the layout of a capture file.
type Format string

const (
	FormatAuto Format = ""
	FormatHAR  Format = "har"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a user supplied format name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "har":
		return FormatHAR, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedInput, name)
	}
}

// SourceRecord is the on-disk form of a request in JSON and YAML capture files.
type SourceRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Method       string    `json:"method" yaml:"method"`
	URL          string    `json:"url" yaml:"url"`
	GQLOperation string    `json:"gql_operation,omitempty" yaml:"gql_operation,omitempty"`
	StatusCode   int       `json:"status_code" yaml:"status_code"`
	DurationMs   int64     `json:"duration_ms" yaml:"duration_ms"`
}

// ToRecord validates the source record and converts it to a domain record.
// position disambiguates generated IDs for otherwise identical records.
func (s SourceRecord) ToRecord(position int) (domain.RequestRecord, error) {
	if strings.TrimSpace(s.URL) == "" {
		return domain.RequestRecord{}, fmt.Errorf("%w: url is required", domain.ErrInvalidRecord)
	}
	if strings.TrimSpace(s.Method) == "" {
		return domain.RequestRecord{}, fmt.Errorf("%w: method is required", domain.ErrInvalidRecord)
	}

	r := domain.RequestRecord{
		ID:           s.ID,
		Timestamp:    s.Timestamp,
		Method:       strings.ToUpper(strings.TrimSpace(s.Method)),
		URL:          s.URL,
		GQLOperation: s.GQLOperation,
		StatusCode:   s.StatusCode,
		Duration:     time.Duration(s.DurationMs) * time.Millisecond,
	}
	if r.ID == "" {
		r.ID = generateRequestID(position, r.Timestamp, r.Method, r.URL)
	}
	return r, nil
}

// FromRecord converts a domain record to its on-disk form
func FromRecord(r domain.RequestRecord) SourceRecord {
	return SourceRecord{
		ID:           r.ID,
		Timestamp:    r.Timestamp,
		Method:       r.Method,
		URL:          r.URL,
		GQLOperation: r.GQLOperation,
		StatusCode:   r.StatusCode,
		DurationMs:   r.Duration.Milliseconds(),
	}
}

// generateRequestID creates a short hash ID (7 chars, git-style) from request data.
// The same file always yields the same IDs, so reloads keep row identity.
func generateRequestID(position int, timestamp time.Time, method, url string) string {
	data := fmt.Sprintf("%d:%d:%s:%s", position, timestamp.UnixNano(), method, url)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:7]
}

// LoadFile reads a capture file, detecting the format from its extension.
func LoadFile(path string, format Format) ([]domain.RequestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture file: %w", err)
	}

	if format == FormatAuto {
		format = formatFromPath(path)
	}

	records, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

// Parse decodes capture data in the given format. FormatAuto sniffs the content.
func Parse(data []byte, format Format) ([]domain.RequestRecord, error) {
	if format == FormatAuto {
		format = sniffFormat(data)
	}

	switch format {
	case FormatHAR:
		return parseHAR(data)
	case FormatJSON:
		var src []SourceRecord
		if err := json.Unmarshal(data, &src); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
		}
		return convertSource(src)
	case FormatYAML:
		var src []SourceRecord
		if err := yaml.Unmarshal(data, &src); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
		}
		return convertSource(src)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedInput, format)
	}
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".har":
		return FormatHAR
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatYAML
	}
	switch trimmed[0] {
	case '{':
		if gjson.GetBytes(trimmed, "log.entries").Exists() {
			return FormatHAR
		}
		return FormatJSON
	case '[':
		return FormatJSON
	default:
		return FormatYAML
	}
}

func convertSource(src []SourceRecord) ([]domain.RequestRecord, error) {
	records := make([]domain.RequestRecord, 0, len(src))
	for i, s := range src {
		r, err := s.ToRecord(i)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// harFile holds the subset of HAR 1.2 that the request list needs.
type harFile struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	StartedDateTime string  `json:"startedDateTime"`
	Time            float64 `json:"time"`
	Request         struct {
		Method   string `json:"method"`
		URL      string `json:"url"`
		PostData *struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"postData"`
	} `json:"request"`
	Response struct {
		Status int `json:"status"`
	} `json:"response"`
}

func parseHAR(data []byte) ([]domain.RequestRecord, error) {
	var har harFile
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	records := make([]domain.RequestRecord, 0, len(har.Log.Entries))
	for i, e := range har.Log.Entries {
		ts, _ := parseHARTime(e.StartedDateTime)

		postBody := ""
		if e.Request.PostData != nil {
			postBody = e.Request.PostData.Text
		}

		src := SourceRecord{
			Timestamp:    ts,
			Method:       e.Request.Method,
			URL:          e.Request.URL,
			GQLOperation: graphQLOperation(e.Request.URL, postBody),
			StatusCode:   e.Response.Status,
			DurationMs:   int64(e.Time),
		}
		r, err := src.ToRecord(i)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// parseHARTime accepts the ISO 8601 variants browsers write into HAR files.
func parseHARTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// graphQLOperation extracts the operation name from a request body or, for
// GET requests, from the URL. An explicit operationName wins over a name
// parsed out of the query document.
func graphQLOperation(rawURL, body string) string {
	if body != "" && gjson.Valid(body) {
		parsed := gjson.Parse(body)
		// Batched queries are sent as a JSON array
		if parsed.IsArray() {
			parsed = parsed.Get("0")
		}
		if name := parsed.Get("operationName").String(); name != "" {
			return name
		}
		if name := operationFromQuery(parsed.Get("query").String()); name != "" {
			return name
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	query := u.Query()
	if name := query.Get("operationName"); name != "" {
		return name
	}
	return operationFromQuery(query.Get("query"))
}
