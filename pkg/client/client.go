package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client provides HTTP client functionality to communicate with a procward daemon.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8172",
		Timeout: 10 * time.Second,
	}
}

// New creates a new procward API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: config.Timeout},
		logger:  config.Logger,
	}
}

// IsReachable reports whether the daemon answers on the registered endpoint.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/registered", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Register records a workspace's worker process with the daemon.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/register", req, nil)
}

// Unregister removes a workspace's record.
func (c *Client) Unregister(ctx context.Context, workspaceID string) error {
	return c.doJSON(ctx, http.MethodPost, "/unregister", UnregisterRequest{WorkspaceID: workspaceID}, nil)
}

// ListRegistered returns the daemon's current registry contents.
func (c *Client) ListRegistered(ctx context.Context) (map[string]TrackedProcess, error) {
	var out map[string]TrackedProcess
	if err := c.doJSON(ctx, http.MethodGet, "/registered", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRunning returns registered entries with liveness plus unregistered
// orphan pids.
func (c *Client) ListRunning(ctx context.Context) (RunningReport, error) {
	var out RunningReport
	err := c.doJSON(ctx, http.MethodGet, "/running", nil, &out)
	return out, err
}

// ClearAll drops every registry record.
func (c *Client) ClearAll(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/registered", nil, nil)
}

// Reconcile runs one registry reconciliation pass on the daemon.
func (c *Client) Reconcile(ctx context.Context, active []string) (ReconcileResult, error) {
	var out ReconcileResult
	err := c.doJSON(ctx, http.MethodPost, "/reconcile", ActiveRequest{Active: active}, &out)
	return out, err
}

// Scan runs one unregistered-orphan scan on the daemon.
func (c *Client) Scan(ctx context.Context, active []string) (ScanResult, error) {
	var out ScanResult
	err := c.doJSON(ctx, http.MethodPost, "/scan", ActiveRequest{Active: active}, &out)
	return out, err
}

// doJSON performs an HTTP request with common error handling. A nil body
// sends no payload; a non-nil out decodes the response into it.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&apiErr); decErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d for %s %s", resp.StatusCode, method, path)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
