package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charliek/netscope/internal/domain"
	"github.com/charliek/netscope/internal/filter"
)

// StreamRequests handles GET /api/v1/requests/stream (SSE).
// The filtered collection is delivered once on connect and again after every
// change to the store, always as a complete snapshot.
func (h *Handlers) StreamRequests(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Check if flusher is available
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "streaming not supported",
			Code:  domain.ErrCodeStreamingNotSupported,
		})
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribe before the initial snapshot so no change is missed
	sub := h.store.Subscribe()
	defer h.store.Unsubscribe(sub.ID)

	fmt.Fprintf(w, ": connected\n\n")
	if err := h.writeSnapshot(w, h.store.Snapshot(), criteria); err != nil {
		return
	}
	flusher.Flush()

	// The subscription keeps only the latest snapshot, so a slow client
	// skips intermediate states instead of blocking the store.
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Ch:
			if !ok {
				return
			}
			if err := h.writeSnapshot(w, snap, criteria); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handlers) writeSnapshot(w http.ResponseWriter, snapshot []domain.RequestRecord, criteria domain.FilterCriteria) error {
	resp := ToRequestsResponse(filter.Apply(snapshot, criteria), len(snapshot), criteria)
	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("encoding snapshot", "error", err)
		return err
	}

	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		h.logger.Debug("SSE write error (client likely disconnected)", "error", err)
		return err
	}
	return nil
}
