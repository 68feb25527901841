package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schnooty-agent/internal/shared"
	"schnooty-agent/internal/timer"
)

func TestApplyMonitorsEmitsBatchesOnTick(t *testing.T) {
	tm := timer.New(zap.NewNop().Sugar())
	sch := New(tm, zap.NewNop().Sugar())

	var mu sync.Mutex
	var names []string
	sch.AddRecipient(func(batch shared.ExecuteBatch) {
		mu.Lock()
		for _, m := range batch.Monitors {
			names = append(names, m.Name)
		}
		mu.Unlock()
	})

	sch.ApplyMonitors("config://monitors", []shared.Monitor{
		{Name: "m1", Kind: shared.KindTCP, Period: "50ms-unused"},
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestApplyMonitorsUnionAcrossSources(t *testing.T) {
	tm := timer.New(zap.NewNop().Sugar())
	sch := New(tm, zap.NewNop().Sugar())

	sch.ApplyMonitors("config://monitors", []shared.Monitor{{Name: "m1", Kind: shared.KindTCP, Period: "10s"}})
	sch.ApplyMonitors("api://monitors", []shared.Monitor{{Name: "m2", Kind: shared.KindTCP, Period: "10s"}})

	sch.mu.Lock()
	defer sch.mu.Unlock()
	assert.Len(t, sch.byUID, 2)
}

func TestApplyMonitorsReplacementCancelsRemoved(t *testing.T) {
	tm := timer.New(zap.NewNop().Sugar())
	sch := New(tm, zap.NewNop().Sugar())

	sch.ApplyMonitors("config://monitors", []shared.Monitor{
		{Name: "m1", Kind: shared.KindTCP, Period: "10s"},
		{Name: "m2", Kind: shared.KindTCP, Period: "10s"},
	})
	sch.ApplyMonitors("config://monitors", []shared.Monitor{
		{Name: "m2", Kind: shared.KindTCP, Period: "10s"},
		{Name: "m3", Kind: shared.KindTCP, Period: "10s"},
	})

	sch.mu.Lock()
	defer sch.mu.Unlock()
	_, hasM1 := sch.byUID[shared.Monitor{Name: "m1"}.UID()]
	_, hasM2 := sch.byUID[shared.Monitor{Name: "m2"}.UID()]
	_, hasM3 := sch.byUID[shared.Monitor{Name: "m3"}.UID()]
	assert.False(t, hasM1)
	assert.True(t, hasM2)
	assert.True(t, hasM3)
}
