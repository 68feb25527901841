// Package scheduler maintains the active monitor set and translates it
// into periodic batch emissions to the Executor. Grounded on
// original_source/src/actors/scheduler.rs (SchedulerActor, uid scheme,
// to_milliseconds period parsing).
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"schnooty-agent/internal/config"
	"schnooty-agent/internal/shared"
	"schnooty-agent/internal/timer"
)

// BatchRecipient receives ExecuteBatch emissions (the Executor).
type BatchRecipient func(batch shared.ExecuteBatch)

type entry struct {
	monitor          shared.Monitor
	sourceID         string
	lastDispatchedAt time.Time
}

// Scheduler maintains ScheduleEntry state and drives the Timer.
type Scheduler struct {
	mu         sync.Mutex
	byUID      map[string]*entry
	timer      *timer.Timer
	recipients []BatchRecipient
	logger     *zap.SugaredLogger
}

// New builds a Scheduler driven by t.
func New(t *timer.Timer, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		byUID:  make(map[string]*entry),
		timer:  t,
		logger: logger.With("component", "scheduler"),
	}
}

// AddRecipient registers a BatchRecipient (the Executor).
func (s *Scheduler) AddRecipient(r BatchRecipient) {
	s.mu.Lock()
	s.recipients = append(s.recipients, r)
	s.mu.Unlock()
}

// ApplyMonitors replaces all monitors originating from sourceID with the
// new list; the scheduler's union is the disjoint union across
// source_ids, so config-file and API monitors coexist.
func (s *Scheduler) ApplyMonitors(sourceID string, monitors []shared.Monitor) {
	newUIDs := make(map[string]struct{}, len(monitors))
	for _, m := range monitors {
		newUIDs[m.UID()] = struct{}{}
	}

	s.mu.Lock()
	var removed []string
	for uid, e := range s.byUID {
		if e.sourceID != sourceID {
			continue
		}
		if _, keep := newUIDs[uid]; !keep {
			removed = append(removed, uid)
			delete(s.byUID, uid)
		}
	}
	s.mu.Unlock()

	for _, uid := range removed {
		s.timer.Cancel(uid)
	}

	for _, m := range monitors {
		s.register(sourceID, m)
	}
}

func (s *Scheduler) register(sourceID string, m shared.Monitor) {
	uid := m.UID()
	period := resolvePeriod(m.Period, s.logger)

	s.mu.Lock()
	s.byUID[uid] = &entry{monitor: m, sourceID: sourceID}
	s.mu.Unlock()

	if err := s.timer.Register(uid, period, s.onTick); err != nil {
		s.logger.Errorw("failed to register timer", "uid", uid, "error", err)
	}
}

func resolvePeriod(period string, logger *zap.SugaredLogger) time.Duration {
	d := config.ParsePeriod(period)
	if d <= 0 {
		logger.Warnw("period resolved to zero or less, defaulting to 1s", "period", period)
		return time.Second
	}
	return d
}

// onTick is the Timer subscriber: look up the monitor and emit a
// one-item batch, or drop silently if the uid is stale.
func (s *Scheduler) onTick(uid string) {
	s.mu.Lock()
	e, ok := s.byUID[uid]
	var recipients []BatchRecipient
	if ok {
		e.lastDispatchedAt = time.Now().UTC()
		recipients = append([]BatchRecipient(nil), s.recipients...)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	batch := shared.ExecuteBatch{Monitors: []shared.Monitor{e.monitor}}
	for _, r := range recipients {
		r(batch)
	}
}
