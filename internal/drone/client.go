// Package drone is the HTTP client for the job-queue server. It reports the
// size of the pending-work backlog and the number of active build agents.
package drone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/me/agentpool/pkg/model"
)

// Client queries the queue server's REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a queue client with connection pooling. The token is
// sent as a bearer credential on every request.
func NewClient(baseURL, token string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// stage mirrors the queue item shape returned by /api/queue. Only the status
// field matters here.
type stage struct {
	Status string `json:"status"`
}

// Backlog returns the number of queued stages not yet claimed by an agent.
func (c *Client) Backlog(ctx context.Context) (int, error) {
	var stages []stage
	if err := c.getJSON(ctx, "/api/queue", &stages); err != nil {
		return 0, &model.ObservationError{Source: "drone", Op: "backlog", Err: err}
	}

	n := 0
	for _, s := range stages {
		if s.Status == "pending" {
			n++
		}
	}
	return n, nil
}

// Agents returns the number of agents the queue currently reports active.
func (c *Client) Agents(ctx context.Context) (int, error) {
	var agents []json.RawMessage
	if err := c.getJSON(ctx, "/api/agents", &agents); err != nil {
		return 0, &model.ObservationError{Source: "drone", Op: "agents", Err: err}
	}
	return len(agents), nil
}

// getJSON performs an authenticated GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
