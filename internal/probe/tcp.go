package probe

import (
	"context"
	"fmt"
	"net"

	"schnooty-agent/internal/shared"
)

// TCPDriver probes a TCP socket for reachability. Grounded on
// original_source/src/monitoring/monitor_impl/tcp_monitor.rs.
type TCPDriver struct {
	Dialer net.Dialer
}

func NewTCPDriver() *TCPDriver {
	return &TCPDriver{}
}

func (d *TCPDriver) Probe(ctx context.Context, m shared.Monitor) shared.MonitorStatus {
	b := NewStatusBuilder(m.Name, shared.KindTCP)

	hostname, _ := m.Body["hostname"].(string)
	port, ok := portOf(m.Body["port"])
	if hostname == "" || !ok {
		b.Logf("missing required hostname/port in monitor body")
		return b.Build(shared.StatusDown, "hostname and port required", "monitor body missing hostname/port",
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	addr := fmt.Sprintf("%s:%d", hostname, port)
	b.Logf("opening TCP connection to %s", addr)

	conn, err := d.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		b.Logf("connection failed: %v", err)
		return b.Build(shared.StatusDown, "a successful TCP connection", err.Error(),
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}
	conn.Close()

	b.Logf("connection succeeded")
	return b.Build(shared.StatusOK, "a successful TCP connection", "Connection to host is successful over TCP",
		fmt.Sprintf("Monitor of type %s", m.Kind))
}

func portOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
