// Package alerter maintains last-seen status per monitor and dispatches
// to configured alert channels on edges. Grounded on
// original_source/src/actors/alerter.rs (process_state_change, is_new).
package alerter

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"schnooty-agent/internal/alertchannel"
	"schnooty-agent/internal/shared"
)

const defaultDispatchTimeout = 10 * time.Second

type monitorState struct {
	lastStatus    shared.Status
	lastTimestamp int64 // unix nano, for strict ordering
	isNew         bool
}

// Alerter owns per-monitor state machines and channel dispatch.
type Alerter struct {
	mu       sync.Mutex
	states   map[string]*monitorState
	alerts   []shared.Alert
	channels map[shared.AlertKind]alertchannel.Sender
	logger   *zap.SugaredLogger
}

// New builds an Alerter that dispatches through the given channel senders.
func New(logger *zap.SugaredLogger, channels map[shared.AlertKind]alertchannel.Sender) *Alerter {
	return &Alerter{
		states:   make(map[string]*monitorState),
		channels: channels,
		logger:   logger.With("component", "alerter"),
	}
}

// AlertUpdate replaces the configured alert channel list.
func (a *Alerter) AlertUpdate(alerts []shared.Alert) {
	a.mu.Lock()
	a.alerts = alerts
	a.mu.Unlock()
}

// Receive handles one incoming StatusMsg, applying the edge-triggered
// state machine from spec §4.5. Safe to call concurrently; incoming
// messages for the same monitor are serialized internally, but callers
// delivering an unordered batch for one monitor should sort by timestamp
// first (see Alerter.ReceiveBatch).
func (a *Alerter) Receive(msg shared.StatusMsg) {
	name := msg.Monitor.Name
	ts := msg.Status.Timestamp.UnixNano()

	a.mu.Lock()
	st, ok := a.states[name]
	if !ok {
		st = &monitorState{isNew: true}
		a.states[name] = st
	}

	if ts < st.lastTimestamp {
		a.mu.Unlock()
		return // out-of-order, ignore per spec §4.5
	}

	wasNew := st.isNew
	changed := !wasNew && st.lastStatus != msg.Status.Status
	emit := changed || (wasNew && msg.Status.Status == shared.StatusDown)

	st.lastTimestamp = ts
	st.lastStatus = msg.Status.Status
	st.isNew = false

	var alerts []shared.Alert
	if emit {
		alerts = append(alerts, a.alerts...)
	}
	a.mu.Unlock()

	if emit {
		a.dispatch(msg, alerts)
	}
}

// ReceiveBatch sorts msgs by timestamp ascending before applying them,
// matching spec §4.5's ordering requirement for messages that may arrive
// out of FIFO order across senders.
func (a *Alerter) ReceiveBatch(msgs []shared.StatusMsg) {
	sorted := append([]shared.StatusMsg(nil), msgs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Status.Timestamp.Before(sorted[j].Status.Timestamp)
	})
	for _, m := range sorted {
		a.Receive(m)
	}
}

func (a *Alerter) dispatch(msg shared.StatusMsg, alerts []shared.Alert) {
	payload := shared.AlertPayload{
		MonitorName: msg.Monitor.Name,
		Status:      msg.Status,
		NodeInfo:    CurrentNodeInfo(),
	}

	for _, alert := range alerts {
		alert := alert
		go a.dispatchOne(alert, payload)
	}
}

func (a *Alerter) dispatchOne(alert shared.Alert, payload shared.AlertPayload) {
	if alert.Type == shared.AlertLog {
		return
	}

	sender, ok := a.channels[alert.Type]
	if !ok {
		a.logger.Errorw("no sender registered for alert type", "type", alert.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDispatchTimeout)
	defer cancel()

	if err := sender.Send(ctx, alert.Body, payload); err != nil {
		a.logger.Errorw("alert dispatch failed", "type", alert.Type, "monitor", payload.MonitorName, "error", err)
	}
}
