// Package probe implements the per-kind health check drivers: HTTP, TCP,
// Process, and Redis. Grounded on original_source's
// src/monitoring/monitor_impl/{http,tcp,process,redis}_monitor.rs for
// algorithm, and on the teacher's executor.Executor "Execute(ctx, ...)
// *Result" shape for the Go interface.
package probe

import (
	"context"
	"fmt"
	"time"

	"schnooty-agent/internal/shared"
)

// Driver executes one probe for a monitor. Implementations must never
// panic out; on internal failure they return a DOWN status with the
// failure text in ActualResult.
type Driver interface {
	Probe(ctx context.Context, m shared.Monitor) shared.MonitorStatus
}

// StatusBuilder accumulates human-readable progress lines during a probe
// run, materialized into MonitorStatus.Log. Grounded on
// original_source's MonitorStatusBuilder (writeln! calls throughout
// process_monitor.rs and redis_monitor.rs).
type StatusBuilder struct {
	name    string
	kind    shared.MonitorKind
	entries []shared.LogEntry
}

// NewStatusBuilder starts a builder for one probe run.
func NewStatusBuilder(name string, kind shared.MonitorKind) *StatusBuilder {
	return &StatusBuilder{name: name, kind: kind}
}

// Logf appends a timestamped log line.
func (b *StatusBuilder) Logf(format string, args ...any) {
	b.entries = append(b.entries, shared.LogEntry{
		Timestamp: time.Now().UTC(),
		Value:     fmt.Sprintf(format, args...),
	})
}

// Build finalizes the MonitorStatus with the accumulated log.
func (b *StatusBuilder) Build(status shared.Status, expected, actual, description string) shared.MonitorStatus {
	now := time.Now().UTC()
	return shared.MonitorStatus{
		StatusID:       b.name,
		MonitorName:    b.name,
		MonitorType:    b.kind,
		Status:         status,
		Timestamp:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
		ExpectedResult: expected,
		ActualResult:   actual,
		Description:    description,
		Log:            b.entries,
	}
}
