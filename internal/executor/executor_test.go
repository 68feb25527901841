package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schnooty-agent/internal/shared"
)

func TestExecuteBatchSuppressesReentry(t *testing.T) {
	ex := New(zap.NewNop().Sugar())

	var starts int32
	ex.drivers[shared.KindTCP] = fakeDriver{fn: func(ctx context.Context) shared.MonitorStatus {
		atomic.AddInt32(&starts, 1)
		time.Sleep(200 * time.Millisecond)
		return shared.MonitorStatus{Status: shared.StatusOK}
	}}

	var received int32
	var wg sync.WaitGroup
	ex.AddRecipient(func(msg shared.StatusMsg) {
		atomic.AddInt32(&received, 1)
		wg.Done()
	})
	wg.Add(1)

	m := shared.Monitor{Name: "flaky", Kind: shared.KindTCP}

	report1 := ex.ExecuteBatch(context.Background(), shared.ExecuteBatch{Monitors: []shared.Monitor{m}})
	require.Len(t, report1.MonitorsStarted, 1)
	require.Empty(t, report1.MonitorsIgnored)

	report2 := ex.ExecuteBatch(context.Background(), shared.ExecuteBatch{Monitors: []shared.Monitor{m}})
	assert.Empty(t, report2.MonitorsStarted)
	assert.Len(t, report2.MonitorsIgnored, 1)

	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&starts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&received))
}

func TestExecuteBatchSynthesizesDownOnUnknownKind(t *testing.T) {
	ex := New(zap.NewNop().Sugar())

	var got shared.StatusMsg
	var wg sync.WaitGroup
	wg.Add(1)
	ex.AddRecipient(func(msg shared.StatusMsg) {
		got = msg
		wg.Done()
	})

	m := shared.Monitor{Name: "weird", Kind: shared.MonitorKind("UNKNOWN")}
	ex.ExecuteBatch(context.Background(), shared.ExecuteBatch{Monitors: []shared.Monitor{m}})
	wg.Wait()

	assert.Equal(t, shared.StatusDown, got.Status.Status)
	assert.Contains(t, got.Status.ActualResult, "Starting monitor failed")
}

type fakeDriver struct {
	fn func(ctx context.Context) shared.MonitorStatus
}

func (f fakeDriver) Probe(ctx context.Context, m shared.Monitor) shared.MonitorStatus {
	return f.fn(ctx)
}
