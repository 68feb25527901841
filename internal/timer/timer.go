// Package timer fires periodic ticks for named subscribers, cancelling
// and replacing existing schedules on re-registration. Grounded on
// original_source's TimerActor (cancel-then-reinstall on re-register) and
// the teacher's task{cancel, done} goroutine-lifecycle idiom.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Subscriber receives a tick for uid. Implementations must return
// promptly; Timer delivers at most one outstanding tick per uid.
type Subscriber func(uid string)

type schedule struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Timer fires periodic ticks for registered uids.
type Timer struct {
	mu        sync.Mutex
	schedules map[string]*schedule
	logger    *zap.SugaredLogger
}

// New creates a Timer.
func New(logger *zap.SugaredLogger) *Timer {
	return &Timer{
		schedules: make(map[string]*schedule),
		logger:    logger.With("component", "timer"),
	}
}

// Register installs (or replaces) the schedule for uid. If uid is already
// registered, the prior schedule is cancelled atomically before the new
// one starts. An immediate tick is delivered on registration. Periods
// under 1ms are rejected.
func (t *Timer) Register(uid string, period time.Duration, sub Subscriber) error {
	if period < time.Millisecond {
		return fmt.Errorf("timer: period %s for %q is below the 1ms minimum", period, uid)
	}

	t.mu.Lock()
	if prior, ok := t.schedules[uid]; ok {
		prior.cancel()
		<-prior.done
	}

	ctx, cancel := context.WithCancel(context.Background())
	sc := &schedule{cancel: cancel, done: make(chan struct{})}
	t.schedules[uid] = sc
	t.mu.Unlock()

	go t.run(ctx, sc, uid, period, sub)

	return nil
}

// Cancel removes any schedule for uid. Idempotent.
func (t *Timer) Cancel(uid string) {
	t.mu.Lock()
	sc, ok := t.schedules[uid]
	if ok {
		delete(t.schedules, uid)
	}
	t.mu.Unlock()

	if ok {
		sc.cancel()
		<-sc.done
	}
}

func (t *Timer) run(ctx context.Context, sc *schedule, uid string, period time.Duration, sub Subscriber) {
	defer close(sc.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	t.deliver(uid, sub)

	// busy guards against an unbounded backlog: at most one tick may be
	// outstanding per uid, additional wake-ups while one is in flight are
	// coalesced by simply being skipped.
	busy := make(chan struct{}, 1)
	busy <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case <-busy:
				go func() {
					t.deliver(uid, sub)
					busy <- struct{}{}
				}()
			default:
				// a tick is still outstanding; coalesce this wake-up.
			}
		}
	}
}

func (t *Timer) deliver(uid string, sub Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorw("subscriber panicked on tick", "uid", uid, "panic", r)
		}
	}()
	sub(uid)
}
