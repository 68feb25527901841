package configurator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schnooty-agent/internal/shared"
)

type fakeScheduler struct {
	sourceID string
	monitors []shared.Monitor
}

func (f *fakeScheduler) ApplyMonitors(sourceID string, monitors []shared.Monitor) {
	f.sourceID = sourceID
	f.monitors = monitors
}

type fakeAlerter struct {
	alerts []shared.Alert
}

func (f *fakeAlerter) AlertUpdate(alerts []shared.Alert) {
	f.alerts = alerts
}

type fakeSession struct {
	name, agentID, groupID string
}

func (f *fakeSession) ApplyIdentity(name, agentID, groupID string) {
	f.name, f.agentID, f.groupID = name, agentID, groupID
}

func TestApplyFileConfigSkipsInvalidAndAggregatesErrors(t *testing.T) {
	sched := &fakeScheduler{}
	alert := &fakeAlerter{}
	c := New(sched, alert, &fakeSession{}, zap.NewNop().Sugar())

	err := c.ApplyFileConfig([]shared.Monitor{
		{Name: "valid", Kind: shared.KindTCP, Period: "10s"},
		{Name: "", Kind: shared.KindTCP, Period: "10s"}, // missing required name
	}, nil)

	require.Error(t, err)
	require.Len(t, sched.monitors, 1)
	assert.Equal(t, "valid", sched.monitors[0].Name)
	assert.Equal(t, "config://monitors", sched.sourceID)
}

func TestApplySessionConfigFansOutIdentity(t *testing.T) {
	sess := &fakeSession{}
	c := New(&fakeScheduler{}, &fakeAlerter{}, sess, zap.NewNop().Sugar())

	c.ApplySessionConfig("agent-a", "agent-1", "group-1")

	assert.Equal(t, "agent-a", sess.name)
	assert.Equal(t, "agent-1", sess.agentID)
	assert.Equal(t, "group-1", sess.groupID)
}

func TestApplySessionConfigNilSessionIsNoop(t *testing.T) {
	c := New(&fakeScheduler{}, &fakeAlerter{}, nil, zap.NewNop().Sugar())
	assert.NotPanics(t, func() { c.ApplySessionConfig("a", "b", "c") })
}
