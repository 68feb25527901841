package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"schnooty-agent/internal/shared"
)

// HTTPDriver probes an HTTP(S) endpoint. Grounded on
// original_source/src/monitoring/monitor_impl/http_monitor.rs: OK iff the
// response status is 2xx; redirects are not followed implicitly.
type HTTPDriver struct {
	Client *http.Client
}

// NewHTTPDriver builds an HTTPDriver that does not follow redirects.
func NewHTTPDriver() *HTTPDriver {
	return &HTTPDriver{
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (d *HTTPDriver) Probe(ctx context.Context, m shared.Monitor) shared.MonitorStatus {
	b := NewStatusBuilder(m.Name, shared.KindHTTP)

	method, _ := m.Body["method"].(string)
	url, _ := m.Body["url"].(string)
	if method == "" || url == "" {
		b.Logf("missing required method/url in monitor body")
		return b.Build(shared.StatusDown, "method and url required", "monitor body missing method/url",
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	var bodyReader io.Reader
	if bodyStr, ok := m.Body["body"].(string); ok && bodyStr != "" {
		bodyReader = bytes.NewBufferString(bodyStr)
	}

	b.Logf("sending %s %s", method, url)
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		b.Logf("failed to build request: %v", err)
		return b.Build(shared.StatusDown, "a valid HTTP request", fmt.Sprintf("Starting monitor failed: %v", err),
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	if headers, ok := m.Body["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		b.Logf("transport error: %v", err)
		return b.Build(shared.StatusDown, "HTTP status 200-299", err.Error(),
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}
	defer resp.Body.Close()

	b.Logf("received status %d", resp.StatusCode)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	status := shared.StatusDown
	if ok {
		status = shared.StatusOK
	}

	return b.Build(status, "HTTP status 200-299", fmt.Sprintf("HTTP status %d", resp.StatusCode),
		fmt.Sprintf("Monitor of type %s", m.Kind))
}
