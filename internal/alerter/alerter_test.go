package alerter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"schnooty-agent/internal/alertchannel"
	"schnooty-agent/internal/shared"
)

type recordingSender struct {
	mu    sync.Mutex
	count int
}

func (r *recordingSender) Send(ctx context.Context, body map[string]any, payload shared.AlertPayload) error {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	return nil
}

func (r *recordingSender) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func statusAt(name string, status shared.Status, t time.Time) shared.StatusMsg {
	return shared.StatusMsg{
		Monitor: shared.Monitor{Name: name},
		Status:  shared.MonitorStatus{MonitorName: name, Status: status, Timestamp: t},
	}
}

func TestFirstDownFromNewEmitsAlert(t *testing.T) {
	sender := &recordingSender{}
	a := New(zap.NewNop().Sugar(), map[shared.AlertKind]alertchannel.Sender{shared.AlertWebhook: sender})
	a.AlertUpdate([]shared.Alert{{Type: shared.AlertWebhook}})

	base := time.Now()
	a.Receive(statusAt("m1", shared.StatusDown, base))

	waitForCount(t, sender, 1)
}

func TestNoEmissionWhenStatusUnchanged(t *testing.T) {
	sender := &recordingSender{}
	a := New(zap.NewNop().Sugar(), map[shared.AlertKind]alertchannel.Sender{shared.AlertWebhook: sender})
	a.AlertUpdate([]shared.Alert{{Type: shared.AlertWebhook}})

	base := time.Now()
	a.Receive(statusAt("m1", shared.StatusOK, base))
	waitForCount(t, sender, 0)

	a.Receive(statusAt("m1", shared.StatusOK, base.Add(time.Second)))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sender.Count())
}

func TestReceiveBatchSortsOutOfOrder(t *testing.T) {
	sender := &recordingSender{}
	a := New(zap.NewNop().Sugar(), map[shared.AlertKind]alertchannel.Sender{shared.AlertWebhook: sender})
	a.AlertUpdate([]shared.Alert{{Type: shared.AlertWebhook}})

	base := time.Now()
	t2 := base.Add(time.Second)

	a.ReceiveBatch([]shared.StatusMsg{
		statusAt("m1", shared.StatusOK, t2),
		statusAt("m1", shared.StatusDown, base),
	})

	a.mu.Lock()
	st := a.states["m1"]
	a.mu.Unlock()
	assert.Equal(t, shared.StatusOK, st.lastStatus)
}

func waitForCount(t *testing.T, sender *recordingSender, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sender.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, want, sender.Count())
}
