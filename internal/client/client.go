// Package client talks to the console JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Entities lists the collections served under /api.
var Entities = []string{"projects", "invoices", "expenses", "risks", "assets", "employees", "tasks", "clients"}

// APIError is a non-2xx response, decoded from its problem document when present.
type APIError struct {
	Status int
	Title  string
	Detail string
	Field  string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("console api: %d %s", e.Status, e.Title)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Client wraps interactions with the console API.
type Client struct {
	baseURL    string
	actorID    int64
	httpClient *http.Client
}

// New constructs a client. actorID is sent as X-Actor-ID when non-zero.
func New(baseURL string, actorID int64) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		actorID: actorID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Health fetches /healthz. A degraded service still returns its status.
func (c *Client) Health(ctx context.Context) (dashboard.SystemStatus, error) {
	var status dashboard.SystemStatus
	data, code, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return status, fmt.Errorf("console api: decode health: %w", err)
	}
	if code >= 400 {
		return status, &APIError{Status: code, Title: status.Status}
	}
	return status, nil
}

// Dashboard fetches the dashboard view for scope values such as employee_id.
func (c *Client) Dashboard(ctx context.Context, scope url.Values) (dashboard.ViewModel, error) {
	var vm dashboard.ViewModel
	err := c.getJSON(ctx, "/api/dashboard"+encode(scope), &vm)
	return vm, err
}

// Transition applies a lifecycle action and returns the updated entity.
func (c *Client) Transition(ctx context.Context, entity string, id int64, action string) (json.RawMessage, error) {
	body, err := json.Marshal(httpx.TransitionRequest{Action: action})
	if err != nil {
		return nil, err
	}
	data, err := c.call(ctx, http.MethodPost, "/api/"+entity+"/"+strconv.FormatInt(id, 10)+"/transitions", body)
	return json.RawMessage(data), err
}

// Get fetches one entity as raw JSON.
func (c *Client) Get(ctx context.Context, entity string, id int64) (json.RawMessage, error) {
	data, err := c.call(ctx, http.MethodGet, "/api/"+entity+"/"+strconv.FormatInt(id, 10), nil)
	return json.RawMessage(data), err
}

// List fetches one page of entity. Both the envelope and a bare array are accepted.
func List[T any](ctx context.Context, c *Client, entity string, params query.Params) (shared.Page[T], error) {
	data, err := c.call(ctx, http.MethodGet, "/api/"+entity+encode(params.Values()), nil)
	if err != nil {
		return shared.Page[T]{}, err
	}
	return query.DecodeList[T](data)
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	data, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("console api: decode %s: %w", path, err)
	}
	return nil
}

// call is do plus conversion of error statuses into *APIError.
func (c *Client) call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	data, code, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if code >= 400 {
		return nil, decodeProblem(code, data)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actorID != 0 {
		req.Header.Set("X-Actor-ID", strconv.FormatInt(c.actorID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

func decodeProblem(code int, data []byte) error {
	var problem httpx.ProblemDetail
	if err := json.Unmarshal(data, &problem); err != nil || problem.Title == "" {
		return &APIError{Status: code, Title: http.StatusText(code)}
	}
	return &APIError{Status: code, Title: problem.Title, Detail: problem.Detail, Field: problem.Field}
}

func encode(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
