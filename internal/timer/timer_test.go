package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterDeliversImmediateTick(t *testing.T) {
	tm := New(zap.NewNop().Sugar())
	defer tm.Cancel("u1")

	var count int32
	err := tm.Register("u1", 50*time.Millisecond, func(uid string) {
		atomic.AddInt32(&count, 1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterRejectsSubMillisecondPeriod(t *testing.T) {
	tm := New(zap.NewNop().Sugar())
	err := tm.Register("u2", time.Microsecond, func(uid string) {})
	assert.Error(t, err)
}

func TestReRegisterCancelsPriorSchedule(t *testing.T) {
	tm := New(zap.NewNop().Sugar())
	defer tm.Cancel("u3")

	var slowTicks, fastTicks int32
	require.NoError(t, tm.Register("u3", 200*time.Millisecond, func(uid string) {
		atomic.AddInt32(&slowTicks, 1)
	}))

	require.NoError(t, tm.Register("u3", 20*time.Millisecond, func(uid string) {
		atomic.AddInt32(&fastTicks, 1)
	}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fastTicks) >= 3
	}, time.Second, 5*time.Millisecond)

	// the slow schedule was cancelled before its first 200ms tick could fire
	assert.LessOrEqual(t, atomic.LoadInt32(&slowTicks), int32(1))
}

func TestCancelIsIdempotent(t *testing.T) {
	tm := New(zap.NewNop().Sugar())
	require.NoError(t, tm.Register("u4", 50*time.Millisecond, func(uid string) {}))
	tm.Cancel("u4")
	assert.NotPanics(t, func() { tm.Cancel("u4") })
}
