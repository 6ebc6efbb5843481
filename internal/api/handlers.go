package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
	"github.com/charliek/netscope/internal/filter"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store     *capture.Store
	source    string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(store *capture.Store, source string, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:     store,
		source:    source,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// GetStatus handles GET /api/v1/status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        "running",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		RequestCount:  h.store.Count(),
		Capacity:      h.store.Capacity(),
		Subscribers:   h.store.SubscriberCount(),
		Source:        h.source,
		APIVersion:    "v1",
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetFilters handles GET /api/v1/filters
func (h *Handlers) GetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FiltersResponse{
		Methods:  domain.MethodOptions(),
		Statuses: domain.StatusOptions(),
	})
}

// GetRequests handles GET /api/v1/requests
func (h *Handlers) GetRequests(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit := parseLimit(r)

	snapshot := h.store.Snapshot()
	requests, matched := filter.ApplyLimit(snapshot, criteria, limit)

	resp := ToRequestsResponse(requests, len(snapshot), criteria)
	resp.MatchedCount = matched
	writeJSON(w, http.StatusOK, resp)
}

// GetRequest handles GET /api/v1/requests/{id}
func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.store.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToRequestResponse(record))
}

// IngestRequests handles POST /api/v1/requests.
// The body is a single record object or an array of records.
func (h *Handlers) IngestRequests(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxIngestBodySize+1))
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: reading body: %v", domain.ErrInvalidRecord, err))
		return
	}
	if len(body) > constants.MaxIngestBodySize {
		h.writeError(w, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidRecord, constants.MaxIngestBodySize))
		return
	}

	src, err := decodeSourceRecords(body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	records := make([]domain.RequestRecord, 0, len(src))
	for i, s := range src {
		rec, err := s.ToRecord(i)
		if err != nil {
			h.writeError(w, fmt.Errorf("record %d: %w", i, err))
			return
		}
		// Generated IDs come from the store so repeated posts never collide
		if s.ID == "" {
			rec.ID = ""
		}
		records = append(records, rec)
	}

	stored := h.store.RecordAll(records)

	resp := IngestResponse{
		Accepted: len(stored),
		IDs:      make([]string, len(stored)),
	}
	for i, rec := range stored {
		resp.IDs[i] = rec.ID
	}

	h.logger.Debug("requests ingested", "count", len(stored))
	writeJSON(w, http.StatusCreated, resp)
}

// ClearRequests handles DELETE /api/v1/requests
func (h *Handlers) ClearRequests(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func decodeSourceRecords(body []byte) ([]capture.SourceRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidRecord)
	}

	if trimmed[0] == '[' {
		var src []capture.SourceRecord
		if err := json.Unmarshal(trimmed, &src); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
		}
		return src, nil
	}

	var single capture.SourceRecord
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	return []capture.SourceRecord{single}, nil
}

// parseCriteria extracts filter criteria from query parameters.
// A missing or empty status means any status.
func parseCriteria(r *http.Request) (domain.FilterCriteria, error) {
	q := r.URL.Query()
	criteria := domain.FilterCriteria{
		SearchText: q.Get("search"),
		Method:     q.Get("method"),
	}

	if statusStr := q.Get("status"); statusStr != "" {
		code, err := strconv.Atoi(statusStr)
		if err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("%w: status must be an integer, got %q", domain.ErrInvalidCriteria, statusStr)
		}
		criteria.StatusCode = code
	}

	return criteria, nil
}

// parseLimit returns the limit query parameter (default 100, max 10000)
func parseLimit(r *http.Request) int {
	limit := constants.DefaultRequestLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > constants.MaxRequestLimit {
				limit = constants.MaxRequestLimit
			} else {
				limit = l
			}
		}
	}
	return limit
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encoding JSON response", "error", err)
	}
}

// writeError writes an error response
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := domain.ErrorCode(err)
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrRequestNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidRecord),
		errors.Is(err, domain.ErrInvalidCriteria),
		errors.Is(err, domain.ErrUnsupportedInput):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		// Log the actual error but return a sanitized message
		h.logger.Error("internal error", "error", err)
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
