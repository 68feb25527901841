package alertchannel

import (
	"encoding/json"
	"fmt"

	"github.com/osteele/liquid"

	"schnooty-agent/internal/shared"
)

var engine = liquid.NewEngine()

// bindings mirrors PrepareTemplateBindings in
// internal/modules/notification_channel/providers/common.go: JSON-round-
// trips the payload so template authors can reach nested fields, and
// exposes a few convenience top-level keys.
func bindings(payload shared.AlertPayload) map[string]any {
	statusJSON := map[string]any{}
	raw, _ := json.Marshal(payload.Status)
	json.Unmarshal(raw, &statusJSON)

	return map[string]any{
		"monitor_name": payload.MonitorName,
		"status":       statusJSON,
		"node_info": map[string]any{
			"hostname": payload.NodeInfo.Hostname,
			"platform": payload.NodeInfo.Platform,
			"cpu":      payload.NodeInfo.CPU,
			"ram":      payload.NodeInfo.RAM,
		},
		"is_down": payload.Status.Status == shared.StatusDown,
	}
}

// renderSubject builds the required subject line per spec §6: "[Schnooty]
// Monitor <name> is DOWN" / "... has recovered".
func renderSubject(payload shared.AlertPayload) string {
	if payload.Status.Status == shared.StatusDown {
		return fmt.Sprintf("[Schnooty] Monitor %s is DOWN", payload.MonitorName)
	}
	return fmt.Sprintf("[Schnooty] Monitor %s has recovered", payload.MonitorName)
}

// renderTemplate parses and renders a Liquid template against the
// payload's bindings. Falls back to a plain-text summary if tmpl is empty.
func renderTemplate(tmpl string, payload shared.AlertPayload) (string, error) {
	if tmpl == "" {
		tmpl = defaultBodyTemplate
	}

	parsed, err := engine.ParseString(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing alert template: %w", err)
	}

	out, err := parsed.RenderString(bindings(payload))
	if err != nil {
		return "", fmt.Errorf("rendering alert template: %w", err)
	}
	return out, nil
}

const defaultBodyTemplate = `Monitor {{ monitor_name }} is {{ status.status }}.
Expected: {{ status.expectedResult }}
Actual: {{ status.actualResult }}
Description: {{ status.description }}
Timestamp: {{ status.timestamp }}
Host: {{ node_info.hostname }} ({{ node_info.platform }})
CPU: {{ node_info.cpu }}
RAM: {{ node_info.ram }}

Probe log:
{% for entry in status.log %}[{{ entry.timestamp }}] {{ entry.value }}
{% endfor %}`
