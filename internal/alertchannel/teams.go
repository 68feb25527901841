package alertchannel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"schnooty-agent/internal/shared"
)

// TeamsSender posts the AlertPayload as JSON to a Microsoft Teams
// incoming webhook, matching the same plain AlertPayload contract as
// WebhookSender per spec §6: the automation consumer on the other end of
// either channel sees the same structured monitor_name/status/node_info
// body, just a different destination URL field and header support.
type TeamsSender struct {
	Client *http.Client
}

func NewTeamsSender() *TeamsSender {
	return &TeamsSender{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *TeamsSender) Send(ctx context.Context, body map[string]any, payload shared.AlertPayload) error {
	webhookURL, _ := body["webhook_url"].(string)
	if webhookURL == "" {
		return fmt.Errorf("msTeamsMessage alert: webhook_url is required")
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling Teams payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("building Teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if headers, ok := body["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to Teams webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Teams webhook returned status %d", resp.StatusCode)
	}
	return nil
}
