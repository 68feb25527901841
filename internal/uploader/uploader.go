// Package uploader buffers status records and periodically posts the
// most recent per monitor to the API, retrying on failure. Grounded on
// original_source/src/actors/uploader.rs (perform_upload: descending
// timestamp sort, first-per-name dedup, re-insert-at-head retry).
package uploader

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"schnooty-agent/internal/shared"
)

const uploadInterval = 10 * time.Second

// APIPoster is the subset of the API client the Uploader needs.
type APIPoster interface {
	PostStatus(ctx context.Context, status shared.MonitorStatus) error
}

// Uploader buffers MonitorStatus records and drives periodic upload.
type Uploader struct {
	mu      sync.Mutex
	buffer  []shared.MonitorStatus
	started bool

	api    APIPoster
	logger *zap.SugaredLogger

	cancel context.CancelFunc
}

// New builds an Uploader posting through api.
func New(api APIPoster, logger *zap.SugaredLogger) *Uploader {
	return &Uploader{
		api:    api,
		logger: logger.With("component", "uploader"),
	}
}

// Start launches the ten-second upload tick loop. Calling Start more than
// once is a no-op for already-started uploaders.
func (u *Uploader) Start(ctx context.Context) {
	u.mu.Lock()
	if u.cancel != nil {
		u.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	u.mu.Unlock()

	go u.loop(runCtx)
}

// Stop ends the upload loop without draining the buffer.
func (u *Uploader) Stop() {
	u.mu.Lock()
	cancel := u.cancel
	u.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Receive enqueues a StatusMsg's status. If no upload has ever started,
// triggers one immediately (per spec §4.6 "also whenever a new status
// arrives if no upload has ever started").
func (u *Uploader) Receive(msg shared.StatusMsg) {
	u.mu.Lock()
	u.buffer = append(u.buffer, msg.Status)
	shouldKick := !u.started
	if shouldKick {
		u.started = true
	}
	u.mu.Unlock()

	if shouldKick {
		go u.performUpload(context.Background())
	}
}

func (u *Uploader) loop(ctx context.Context) {
	ticker := time.NewTicker(uploadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.performUpload(ctx)
		}
	}
}

// performUpload builds a deduplicated batch (most-recent-wins per
// monitor), sends it, and on failure re-inserts the sent records at the
// buffer's head for the next retry.
func (u *Uploader) performUpload(ctx context.Context) {
	u.mu.Lock()
	if len(u.buffer) == 0 {
		u.mu.Unlock()
		return
	}

	batch := dedupMostRecent(u.buffer)
	u.buffer = nil
	u.mu.Unlock()

	var failed []shared.MonitorStatus
	for _, status := range batch {
		if err := u.api.PostStatus(ctx, status); err != nil {
			u.logger.Errorw("status upload failed", "monitor", status.MonitorName, "error", err)
			failed = append(failed, status)
		}
	}

	if len(failed) == 0 {
		return
	}

	u.mu.Lock()
	u.buffer = append(failed, u.buffer...)
	u.mu.Unlock()
}

// dedupMostRecent sorts descending by timestamp and keeps only the first
// occurrence per monitor name, matching perform_upload's Vec sort + dedup.
func dedupMostRecent(statuses []shared.MonitorStatus) []shared.MonitorStatus {
	sorted := append([]shared.MonitorStatus(nil), statuses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]shared.MonitorStatus, 0, len(sorted))
	for _, s := range sorted {
		if _, ok := seen[s.MonitorName]; ok {
			continue
		}
		seen[s.MonitorName] = struct{}{}
		out = append(out, s)
	}
	return out
}
