// Package executor runs probes concurrently with single-instance-per-
// monitor semantics. Grounded on original_source/src/actors/executor.rs
// (busy_monitors set, synthesized DOWN status on driver failure) and the
// teacher's goroutine-per-task dispatch idiom.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"schnooty-agent/internal/probe"
	"schnooty-agent/internal/shared"
)

// StatusRecipient receives a StatusMsg once a probe completes.
type StatusRecipient func(msg shared.StatusMsg)

// Executor dispatches probes, suppressing re-entry per monitor.
type Executor struct {
	mu         sync.Mutex
	inFlight   map[string]struct{}
	drivers    map[shared.MonitorKind]probe.Driver
	recipients []StatusRecipient
	logger     *zap.SugaredLogger
}

// New builds an Executor with the standard probe drivers wired in.
func New(logger *zap.SugaredLogger) *Executor {
	return &Executor{
		inFlight: make(map[string]struct{}),
		drivers: map[shared.MonitorKind]probe.Driver{
			shared.KindHTTP:    probe.NewHTTPDriver(),
			shared.KindTCP:     probe.NewTCPDriver(),
			shared.KindProcess: probe.NewProcessDriver(),
			shared.KindRedis:   probe.NewRedisDriver(),
		},
		logger: logger.With("component", "executor"),
	}
}

// AddRecipient registers a StatusRecipient to receive every completed
// probe's StatusMsg (Uploader, Alerter).
func (e *Executor) AddRecipient(r StatusRecipient) {
	e.mu.Lock()
	e.recipients = append(e.recipients, r)
	e.mu.Unlock()
}

// ExecuteBatch partitions the batch into runnable/ignored, spawns a
// cooperative task per runnable monitor, and returns synchronously.
func (e *Executor) ExecuteBatch(ctx context.Context, batch shared.ExecuteBatch) shared.ExecReport {
	report := shared.ExecReport{}

	e.mu.Lock()
	var runnable []shared.Monitor
	for _, m := range batch.Monitors {
		if _, busy := e.inFlight[m.Name]; busy {
			report.MonitorsIgnored = append(report.MonitorsIgnored, m.Name)
			continue
		}
		e.inFlight[m.Name] = struct{}{}
		runnable = append(runnable, m)
		report.MonitorsStarted = append(report.MonitorsStarted, m.Name)
	}
	e.mu.Unlock()

	for _, m := range runnable {
		go e.run(ctx, m)
	}

	return report
}

func (e *Executor) run(ctx context.Context, m shared.Monitor) {
	defer func() {
		e.mu.Lock()
		delete(e.inFlight, m.Name)
		e.mu.Unlock()
	}()

	start := time.Now().UTC()
	status := e.execute(ctx, m, start)

	e.mu.Lock()
	recipients := append([]StatusRecipient(nil), e.recipients...)
	e.mu.Unlock()

	msg := shared.StatusMsg{Monitor: m, Status: status}
	for _, r := range recipients {
		r(msg)
	}
}

func (e *Executor) execute(ctx context.Context, m shared.Monitor, start time.Time) (status shared.MonitorStatus) {
	defer func() {
		if rec := recover(); rec != nil {
			status = downOnFailure(m, start, fmt.Errorf("panic: %v", rec))
		}
	}()

	driver, ok := e.drivers[m.Kind]
	if !ok {
		return downOnFailure(m, start, fmt.Errorf("no driver registered for kind %s", m.Kind))
	}

	timeout := 30 * time.Second
	if m.Timeout > 0 {
		timeout = time.Duration(m.Timeout) * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return driver.Probe(callCtx, m)
}

// downOnFailure synthesizes the DOWN status per spec §4.3(d): driver
// failures that prevent even attempting a probe.
func downOnFailure(m shared.Monitor, start time.Time, err error) shared.MonitorStatus {
	return shared.MonitorStatus{
		StatusID:       m.Name,
		MonitorName:    m.Name,
		MonitorType:    m.Kind,
		Status:         shared.StatusDown,
		Timestamp:      start,
		ExpiresAt:      start.Add(24 * time.Hour),
		ExpectedResult: "Expected to be able to start monitor",
		ActualResult:   fmt.Sprintf("Starting monitor failed: %v", err),
		Description:    fmt.Sprintf("Monitor of type %s", m.Kind),
	}
}
