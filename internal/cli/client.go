package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/constants"
	"github.com/charliek/netscope/internal/domain"
)

// Client is an HTTP client for the netscope API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// streamClient has no timeout since SSE connections are long-lived
	streamClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	// Try to load token from file
	token, _ := loadToken() // Ignore error - token may not exist

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
		},
		streamClient: &http.Client{},
	}
}

// GetStatus gets server status
func (c *Client) GetStatus() (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetFilters gets the method and status selector options
func (c *Client) GetFilters() (*api.FiltersResponse, error) {
	var resp api.FiltersResponse
	if err := c.get("/api/v1/filters", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRequests gets the requests matching criteria, newest limit entries
func (c *Client) GetRequests(criteria domain.FilterCriteria, limit int) (*api.RequestsResponse, error) {
	query := criteriaQuery(criteria)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/requests"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp api.RequestsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRequest gets a single request by ID
func (c *Client) GetRequest(id string) (*api.RequestResponse, error) {
	var resp api.RequestResponse
	if err := c.get("/api/v1/requests/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ingest posts records to the server
func (c *Client) Ingest(records []capture.SourceRecord) (*api.IngestResponse, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}

	var resp api.IngestResponse
	if err := c.do("POST", "/api/v1/requests", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear removes every request from the server
func (c *Client) Clear() error {
	var resp api.SuccessResponse
	return c.do("DELETE", "/api/v1/requests", nil, &resp)
}

// StreamRequests streams filtered snapshots and calls the callback for each
// one until ctx is cancelled or the server closes the stream
func (c *Client) StreamRequests(ctx context.Context, criteria domain.FilterCriteria, callback func(api.RequestsResponse)) error {
	path := "/api/v1/requests/stream"
	if query := criteriaQuery(criteria); len(query) > 0 {
		path += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.addAuthHeader(req)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")
			var snapshot api.RequestsResponse
			if err := json.Unmarshal([]byte(data), &snapshot); err == nil {
				callback(snapshot)
			}
		}
	}
}

// StreamRequestsChannel streams snapshots onto a channel that is closed when
// the stream ends. Only the latest undelivered snapshot is kept. If the stream
// fails, its error is sent on the error channel before the snapshot channel
// closes.
func (c *Client) StreamRequestsChannel(ctx context.Context, criteria domain.FilterCriteria) (<-chan api.RequestsResponse, <-chan error, error) {
	// Probe the server first so connection errors reach the caller
	if _, err := c.GetStatus(); err != nil {
		return nil, nil, err
	}

	ch := make(chan api.RequestsResponse, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(ch)
		err := c.StreamRequests(ctx, criteria, func(snapshot api.RequestsResponse) {
			select {
			case ch <- snapshot:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errs <- err
		}
	}()
	return ch, errs, nil
}

// WatchRequests opens a WebSocket watch and calls callback for each snapshot.
// Criteria received on updates are sent to the server, which answers with a
// new snapshot. It returns nil when ctx is cancelled or the server closes the
// connection.
func (c *Client) WatchRequests(ctx context.Context, criteria domain.FilterCriteria, updates <-chan domain.FilterCriteria, callback func(api.RequestsResponse)) error {
	u, err := url.Parse(c.baseURL + "/api/v1/requests/ws")
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	if query := criteriaQuery(criteria); len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: constants.DefaultRequestTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return decodeError(resp)
			}
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	// Sole writer. Closing conn on cancel unblocks the read loop below.
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case next, ok := <-updates:
				if !ok {
					updates = nil
					continue
				}
				msg := api.CriteriaResponse{Search: next.SearchText, Method: next.Method, StatusCode: next.StatusCode}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}()

	for {
		var snapshot api.RequestsResponse
		if err := conn.ReadJSON(&snapshot); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		callback(snapshot)
	}
}

// criteriaQuery encodes non-default criteria as query parameters
func criteriaQuery(criteria domain.FilterCriteria) url.Values {
	query := url.Values{}
	if criteria.SearchText != "" {
		query.Set("search", criteria.SearchText)
	}
	if criteria.Method != domain.AnyMethod {
		query.Set("method", criteria.Method)
	}
	if criteria.StatusCode != domain.AnyStatus {
		query.Set("status", strconv.Itoa(criteria.StatusCode))
	}
	return query
}

func (c *Client) get(path string, v interface{}) error {
	return c.do("GET", path, nil, v)
}

func (c *Client) do(method, path string, body io.Reader, v interface{}) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// decodeError converts an API error response into an error
func decodeError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Code != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

// addAuthHeader adds the Authorization header if a token is available
func (c *Client) addAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
