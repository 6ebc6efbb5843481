package api

import (
	"time"

	"github.com/charliek/netscope/internal/domain"
)

// StatusResponse represents the response for GET /status
type StatusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	RequestCount  int    `json:"request_count"`
	Capacity      int    `json:"capacity"`
	Subscribers   int    `json:"subscribers"`
	Source        string `json:"source,omitempty"`
	APIVersion    string `json:"api_version"`
}

// RequestResponse represents a single request record
type RequestResponse struct {
	ID           string `json:"id"`
	Timestamp    string `json:"timestamp,omitempty"`
	Method       string `json:"method"`
	URL          string `json:"url"`
	GQLOperation string `json:"gql_operation,omitempty"`
	StatusCode   int    `json:"status_code"`
	DurationMs   int64  `json:"duration_ms"`
}

// CriteriaResponse echoes the criteria a result was computed with
type CriteriaResponse struct {
	Search     string `json:"search"`
	Method     string `json:"method"`
	StatusCode int    `json:"status"`
}

// RequestsResponse represents the response for GET /requests and each
// snapshot event on GET /requests/stream
type RequestsResponse struct {
	Requests      []RequestResponse `json:"requests"`
	FilteredCount int               `json:"filtered_count"`
	MatchedCount  int               `json:"matched_count"` // Matches before the limit
	TotalCount    int               `json:"total_count"`
	Criteria      CriteriaResponse  `json:"criteria"`
}

// IngestResponse represents the response for POST /requests
type IngestResponse struct {
	Accepted int      `json:"accepted"`
	IDs      []string `json:"ids"`
}

// FiltersResponse lists the selector options for GET /filters
type FiltersResponse struct {
	Methods  []domain.MethodOption `json:"methods"`
	Statuses []domain.StatusOption `json:"statuses"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToRequestResponse converts domain.RequestRecord to RequestResponse
func ToRequestResponse(r domain.RequestRecord) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID,
		Method:       r.Method,
		URL:          r.URL,
		GQLOperation: r.GQLOperation,
		StatusCode:   r.StatusCode,
		DurationMs:   r.Duration.Milliseconds(),
	}
	if !r.Timestamp.IsZero() {
		resp.Timestamp = r.Timestamp.Format(time.RFC3339Nano)
	}
	return resp
}

// ToRecord converts an API response back into a domain record.
// Malformed timestamps resolve to the zero time.
func (r RequestResponse) ToRecord() domain.RequestRecord {
	record := domain.RequestRecord{
		ID:           r.ID,
		Method:       r.Method,
		URL:          r.URL,
		GQLOperation: r.GQLOperation,
		StatusCode:   r.StatusCode,
		Duration:     time.Duration(r.DurationMs) * time.Millisecond,
	}
	if r.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
			record.Timestamp = ts
		}
	}
	return record
}

// ToRequestsResponse converts a filtered result into a RequestsResponse
func ToRequestsResponse(requests []domain.RequestRecord, total int, c domain.FilterCriteria) RequestsResponse {
	resp := RequestsResponse{
		Requests:      make([]RequestResponse, len(requests)),
		FilteredCount: len(requests),
		MatchedCount:  len(requests),
		TotalCount:    total,
		Criteria: CriteriaResponse{
			Search:     c.SearchText,
			Method:     c.Method,
			StatusCode: c.StatusCode,
		},
	}
	for i, r := range requests {
		resp.Requests[i] = ToRequestResponse(r)
	}
	return resp
}
