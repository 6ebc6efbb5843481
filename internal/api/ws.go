package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
	"github.com/charliek/netscope/internal/filter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browsers always send Origin; CLI clients usually don't
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isLocalhostOrigin(origin)
	},
}

// WatchRequests handles GET /api/v1/requests/ws.
//
// Like the SSE stream it sends a complete filtered snapshot on connect and
// after every store change. Clients may also send a CriteriaResponse-shaped
// JSON message to replace the criteria, which triggers a new snapshot unless
// the criteria are unchanged. Malformed messages are ignored.
func (h *Handlers) WatchRequests(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.store.Subscribe()
	defer h.store.Unsubscribe(sub.ID)

	updates := make(chan domain.FilterCriteria)
	closed := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go h.readCriteria(conn, updates, closed, stop)

	// The view is owned by this goroutine; only it writes to conn
	view := filter.NewView(h.store.Snapshot())
	view.SetCriteria(criteria)
	var writeErr error
	view.Subscribe(func(res filter.Result) {
		if writeErr == nil {
			writeErr = h.writeResult(conn, res)
		}
	})
	if writeErr = h.writeResult(conn, view.Result()); writeErr != nil {
		return
	}

	for writeErr == nil {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case c := <-updates:
			view.SetCriteria(c)
		case snap, ok := <-sub.Ch:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
			view.SetRecords(snap)
		}
	}
}

// readCriteria forwards criteria messages until the connection fails or the
// handler returns. It closes closed when reading stops.
func (h *Handlers) readCriteria(conn *websocket.Conn, updates chan<- domain.FilterCriteria, closed, stop chan struct{}) {
	defer close(closed)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg CriteriaResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed criteria message", "error", err)
			continue
		}

		c := domain.FilterCriteria{SearchText: msg.Search, Method: msg.Method, StatusCode: msg.StatusCode}
		select {
		case updates <- c:
		case <-stop:
			return
		}
	}
}

func (h *Handlers) writeResult(conn *websocket.Conn, res filter.Result) error {
	_ = conn.SetWriteDeadline(time.Now().Add(constants.DefaultRequestTimeout))
	if err := conn.WriteJSON(ToRequestsResponse(res.Requests, res.Total, res.Criteria)); err != nil {
		h.logger.Debug("websocket write error (client likely disconnected)", "error", err)
		return err
	}
	return nil
}
