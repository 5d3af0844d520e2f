// Package client is a small SDK for the daemon's HTTP API, used by the MCP
// bridge and handy for scripting against a running instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to a running antigravity daemon.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client. endpoint defaults to "http://127.0.0.1:8090".
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8090"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			// Analyze calls may ride out provider backoff server-side.
			Timeout: 2 * time.Minute,
		},
	}
}

// Ping checks daemon health.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/v1/health", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("daemon unhealthy: %q", out.Status)
	}
	return nil
}

// ProviderStatus is one provider's budget occupancy.
type ProviderStatus struct {
	Name          string        `json:"name"`
	MinuteCount   int           `json:"minute_count"`
	MinuteLimit   int           `json:"minute_limit"`
	DayCount      int           `json:"day_count"`
	DayLimit      int           `json:"day_limit"`
	Cooldown      time.Duration `json:"cooldown_ns"`
	LastRequestAt time.Time     `json:"last_request_at"`
}

// JobStatus is the bookkeeping for one scheduled job.
type JobStatus struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// Status is the daemon's /v1/status payload.
type Status struct {
	Providers []ProviderStatus `json:"providers"`
	NextPush  *time.Time       `json:"next_push,omitempty"`
	Jobs      []JobStatus      `json:"jobs,omitempty"`
}

// GetStatus fetches provider budgets and the next scheduled push.
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	var s Status
	err := c.get(ctx, "/v1/status", &s)
	return s, err
}

// AuditEntry is one recorded AI provider attempt.
type AuditEntry struct {
	ID       int64         `json:"id"`
	Ts       time.Time     `json:"ts"`
	Provider string        `json:"provider"`
	Outcome  string        `json:"outcome"`
	Latency  time.Duration `json:"latency"`
	Detail   string        `json:"detail,omitempty"`
}

// GetAudit fetches the newest audit entries.
func (c *Client) GetAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out struct {
		Entries []AuditEntry `json:"entries"`
	}
	err := c.get(ctx, fmt.Sprintf("/v1/audit?limit=%d", limit), &out)
	return out.Entries, err
}

// GetReport fetches the latest stored report for a named kind,
// "market-monitor" or "momentum50", as raw JSON.
func (c *Client) GetReport(ctx context.Context, name string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, "/v1/report/"+name, &raw)
	return raw, err
}

// AnalyzeResult is the daemon's answer to an analysis request. Available
// false means every provider was exhausted.
type AnalyzeResult struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// Analyze runs a prompt through the daemon's provider router.
func (c *Client) Analyze(ctx context.Context, prompt, prefer string) (AnalyzeResult, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt, "prefer": prefer})
	if err != nil {
		return AnalyzeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return AnalyzeResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return AnalyzeResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AnalyzeResult{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result AnalyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return AnalyzeResult{}, err
	}
	return result, nil
}

// TriggerPush starts the daily push on the daemon. Returns once accepted;
// results arrive through the daemon's own channels.
func (c *Client) TriggerPush(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/push", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
