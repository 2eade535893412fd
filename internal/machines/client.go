// Package machines is the HTTP client for the machine-fleet manager. It
// lists the managed fleet, reports which machines are running and since
// when, exposes the provider's clock, and issues start/stop commands.
package machines

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/me/agentpool/pkg/model"
)

// Client talks to the fleet manager's REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a fleet client with connection pooling.
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

// machine mirrors one entry of the /api/v1/machines response.
type machine struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Now returns the provider's current clock reading. It is the time
// authority for every duration comparison in the decision rules; the local
// clock is never consulted.
func (c *Client) Now(ctx context.Context) (time.Time, error) {
	var body struct {
		Now time.Time `json:"now"`
	}
	if err := c.getJSON(ctx, "/api/v1/now", &body); err != nil {
		return time.Time{}, &model.ObservationError{Source: "machines", Op: "now", Err: err}
	}
	return body.Now, nil
}

// Managed returns every machine this system may control, in the response
// order. The fleet manager keeps that order stable for a configuration.
func (c *Client) Managed(ctx context.Context) ([]model.Node, error) {
	list, err := c.listMachines(ctx)
	if err != nil {
		return nil, &model.ObservationError{Source: "machines", Op: "managed", Err: err}
	}

	nodes := make([]model.Node, 0, len(list))
	for _, m := range list {
		nodes = append(nodes, model.Node(m.ID))
	}
	return nodes, nil
}

// Alive returns the running machines keyed to their provider-reported start
// time.
func (c *Client) Alive(ctx context.Context) (map[model.Node]time.Time, error) {
	list, err := c.listMachines(ctx)
	if err != nil {
		return nil, &model.ObservationError{Source: "machines", Op: "alive", Err: err}
	}

	alive := make(map[model.Node]time.Time)
	for _, m := range list {
		if m.State == "started" {
			alive[model.Node(m.ID)] = m.StartedAt
		}
	}
	return alive, nil
}

// Start asks the provider to boot the machine.
func (c *Client) Start(ctx context.Context, node model.Node) error {
	if err := c.post(ctx, fmt.Sprintf("/api/v1/machines/%s/start", node)); err != nil {
		return &model.ActuationError{Node: node, Op: "start", Err: err}
	}
	return nil
}

// Stop asks the provider to shut the machine down.
func (c *Client) Stop(ctx context.Context, node model.Node) error {
	if err := c.post(ctx, fmt.Sprintf("/api/v1/machines/%s/stop", node)); err != nil {
		return &model.ActuationError{Node: node, Op: "stop", Err: err}
	}
	return nil
}

func (c *Client) listMachines(ctx context.Context) ([]machine, error) {
	var list []machine
	if err := c.getJSON(ctx, "/api/v1/machines", &list); err != nil {
		return nil, err
	}
	return list, nil
}

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

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
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

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	return nil
}
