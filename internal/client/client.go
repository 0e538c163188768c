// Package client posts JSON to the question API and folds every failure mode
// into a single Result value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a whole request, body included.
const DefaultTimeout = 10 * time.Second

// Messages reported in Result.Error.
const (
	MsgTimeout     = "Request timed out"
	MsgInvalidJSON = "Invalid JSON response"
)

// Result is the outcome of a request. Exactly one of Data and Error is set.
type Result struct {
	Data   json.RawMessage
	Error  string
	Status int
}

// OK reports whether the request succeeded.
func (r Result) OK() bool { return r.Error == "" }

// Client talks to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// New creates a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch POSTs payload as JSON to path.
func (c *Client) Fetch(ctx context.Context, path string, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Error: err.Error(), Status: http.StatusInternalServerError}
	}
	return c.do(ctx, http.MethodPost, path, body)
}

// Get issues a GET to path.
func (c *Client) Get(ctx context.Context, path string) Result {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Result{Error: err.Error(), Status: http.StatusInternalServerError}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return transportFailure(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Result{Error: errorMessage(raw, res.StatusCode), Status: res.StatusCode}
	}
	if !json.Valid(raw) {
		return Result{Error: MsgInvalidJSON, Status: res.StatusCode}
	}
	return Result{Data: raw, Status: res.StatusCode}
}

func transportFailure(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Result{Error: MsgTimeout, Status: http.StatusGatewayTimeout}
	}
	return Result{Error: err.Error(), Status: http.StatusInternalServerError}
}

// errorMessage prefers the server's envelope message.
func errorMessage(raw []byte, status int) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}
