// Package apiclient implements the four control-plane HTTP operations:
// GetMonitors, GetAlerts, PutSession, PostStatus. Grounded on spec §4.9
// and the teacher's http.Client-with-timeout idiom
// (providers/teams.go:10*time.Second client).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"schnooty-agent/internal/shared"
)

const defaultTimeout = 30 * time.Second

// Client talks to the control-plane API over HTTP Basic auth built from a
// colon-split "agent-id:secret" API key.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// New builds a Client. apiKey of the form "agent-id:secret" is split on
// the first colon into Basic-auth credentials; an empty apiKey disables
// authentication.
func New(baseURL, apiKey string) *Client {
	var username, password string
	if idx := strings.IndexByte(apiKey, ':'); idx >= 0 {
		username, password = apiKey[:idx], apiKey[idx+1:]
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/") + "/",
		username: username,
		password: password,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

type monitorsResponse struct {
	Monitors []shared.Monitor `json:"monitors"`
}

type alertsResponse struct {
	Alerts []shared.Alert `json:"alerts"`
}

// GetMonitors fetches the current monitor list from the API.
func (c *Client) GetMonitors(ctx context.Context) ([]shared.Monitor, error) {
	var out monitorsResponse
	if err := c.do(ctx, http.MethodGet, "monitors", nil, &out); err != nil {
		return nil, err
	}
	return out.Monitors, nil
}

// GetAlerts fetches the current alert channel list from the API.
func (c *Client) GetAlerts(ctx context.Context) ([]shared.Alert, error) {
	var out alertsResponse
	if err := c.do(ctx, http.MethodGet, "alerts", nil, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

// PutSession announces agent liveness, returning the API's echoed Session.
func (c *Client) PutSession(ctx context.Context, session shared.Session) (shared.Session, error) {
	var out shared.Session
	path := fmt.Sprintf("sessions/%s", session.Name)
	if err := c.do(ctx, http.MethodPut, path, session, &out); err != nil {
		return shared.Session{}, err
	}
	return out, nil
}

// PostStatus uploads one MonitorStatus record. The API upserts by
// statusId, giving at-least-once delivery idempotency.
func (c *Client) PostStatus(ctx context.Context, status shared.MonitorStatus) error {
	path := fmt.Sprintf("statuses/%s", status.StatusID)
	return c.do(ctx, http.MethodPost, path, status, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("transport error calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}
	return nil
}
