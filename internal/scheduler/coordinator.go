// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scheduler drives periodic background scans across all users with
// auto-scan enabled, and serves manual per-user scan triggers.
//
// One sweep runs at a time: a tick that fires while the previous sweep is
// still in flight is a logged no-op. Within a sweep, users are scanned
// sequentially with a fixed delay between them so a large user population
// does not burst-load the mail API. One user's failure never aborts the
// sweep for the rest.
//
// The per-user cursor (AutoScanSettings.LastAutoScan) advances only after a
// scan completes fetch, score, and merge. A scan that fails partway leaves
// the cursor untouched, so the next cycle retries the same window; the
// merge is idempotent, so the retry is safe.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/aggregate"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/normalize"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/provider"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/scoring"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/store"
)

const (
	// DefaultInterUserDelay is the pause between consecutive users in a
	// sweep.
	DefaultInterUserDelay = 2 * time.Second

	// firstRunLookback is the fetch window for a user whose cursor has
	// never been set.
	firstRunLookback = 7 * 24 * time.Hour
)

// SettingsStore is the subset of the store the coordinator needs for
// scheduling state.
type SettingsStore interface {
	GetAutoScanSettings(ctx context.Context, userID string) (models.AutoScanSettings, error)
	UpdateAutoScanSettings(ctx context.Context, userID string, patch store.SettingsPatch) error
	ListAutoScanEnabled(ctx context.Context) ([]string, error)
}

// DedupFilter skips messages that were already scored and merged in an
// earlier, overlapping window. Optional.
type DedupFilter interface {
	Seen(ctx context.Context, userID, messageID string) (bool, error)
	Mark(ctx context.Context, userID string, messageIDs []string) error
}

// AlertSink receives the HIGH-risk messages of each completed scan. Optional.
type AlertSink interface {
	PublishHighRisk(ctx context.Context, userID string, batch []models.ScoredMessage) error
}

// Coordinator owns the sweep loop and the per-user scan pipeline.
type Coordinator struct {
	provider   provider.MailProvider
	settings   SettingsStore
	aggregator *aggregate.Aggregator
	normalizer *normalize.Normalizer
	scorer     *scoring.Scorer
	dedup      DedupFilter
	alerts     AlertSink

	interUserDelay time.Duration
	now            func() time.Time

	mu            sync.Mutex
	running       bool
	jobInProgress bool

	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// CoordinatorConfig wires the coordinator's collaborators. Dedup and Alerts
// may be nil; InterUserDelay of zero selects the default.
type CoordinatorConfig struct {
	Provider       provider.MailProvider
	Settings       SettingsStore
	Aggregator     *aggregate.Aggregator
	Normalizer     *normalize.Normalizer
	Scorer         *scoring.Scorer
	Dedup          DedupFilter
	Alerts         AlertSink
	InterUserDelay time.Duration
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	delay := cfg.InterUserDelay
	if delay == 0 {
		delay = DefaultInterUserDelay
	}
	return &Coordinator{
		provider:       cfg.Provider,
		settings:       cfg.Settings,
		aggregator:     cfg.Aggregator,
		normalizer:     cfg.Normalizer,
		scorer:         cfg.Scorer,
		dedup:          cfg.Dedup,
		alerts:         cfg.Alerts,
		interUserDelay: delay,
		now:            time.Now,
		userLocks:      make(map[string]*sync.Mutex),
	}
}

// Status is a point-in-time snapshot of the coordinator.
type Status struct {
	Running       bool `json:"running"`
	JobInProgress bool `json:"job_in_progress"`
}

// Status reports whether the periodic loop is installed and whether a sweep
// is currently in flight.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Running: c.running, JobInProgress: c.jobInProgress}
}

// Start launches the periodic sweep loop. The first sweep fires after
// startDelay, then every interval. Start is idempotent while running.
func (c *Coordinator) Start(ctx context.Context, interval, startDelay time.Duration) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		select {
		case <-loopCtx.Done():
			return
		case <-time.After(startDelay):
		}
		c.RunScheduledSweep(loopCtx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				slog.Info("scheduled sweep loop stopping")
				return
			case <-ticker.C:
				c.RunScheduledSweep(loopCtx)
			}
		}
	}()

	slog.Info("scheduled sweep loop started",
		"interval", interval,
		"start_delay", startDelay,
	)
}

// Stop cancels the sweep loop and waits for an in-flight sweep to finish.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// RunScheduledSweep scans every auto-scan-enabled user once, sequentially.
// If a sweep is already in flight the call is a no-op.
func (c *Coordinator) RunScheduledSweep(ctx context.Context) {
	c.mu.Lock()
	if c.jobInProgress {
		c.mu.Unlock()
		slog.Info("sweep already in progress, skipping tick")
		return
	}
	c.jobInProgress = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.jobInProgress = false
		c.mu.Unlock()
	}()

	start := c.now()

	users, err := c.settings.ListAutoScanEnabled(ctx)
	if err != nil {
		slog.Error("failed to list auto-scan users", "error", err)
		return
	}
	if len(users) == 0 {
		slog.Debug("no auto-scan users enabled")
		return
	}

	slog.Info("scheduled sweep starting", "users", len(users))

	scanned, failed := 0, 0
	for i, userID := range users {
		if i > 0 {
			select {
			case <-ctx.Done():
				slog.Info("sweep cancelled", "scanned", scanned)
				return
			case <-time.After(c.interUserDelay):
			}
		}

		if _, err := c.scanUser(ctx, userID, true, aggregate.ScheduledCaps); err != nil {
			failed++
			if provider.IsNotConnected(err) {
				slog.Info("user not connected, skipping", "user", userID)
				continue
			}
			slog.Error("scheduled scan failed", "user", userID, "error", err)
			continue
		}
		scanned++
	}

	slog.Info("scheduled sweep completed",
		"users", len(users),
		"scanned", scanned,
		"failed", failed,
		"duration", c.now().Sub(start),
	)
}

// TriggerUserScan runs the cursor-advancing scan pipeline for a single user
// immediately. It shares the per-user lock with the sweep but not the sweep's
// single-flight guard, so a manual trigger works while a sweep is running and
// at worst waits for that user's turn to finish.
func (c *Coordinator) TriggerUserScan(ctx context.Context, userID string) (*models.ScanRecord, error) {
	return c.scanUser(ctx, userID, false, aggregate.ScheduledCaps)
}

// ScanWindow runs an on-demand scan over an explicit query window with the
// tighter on-demand retention caps. It never touches the auto-scan cursor.
func (c *Coordinator) ScanWindow(ctx context.Context, userID, query string, maxMessages int) (*models.ScanRecord, error) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if !c.provider.IsConnected(ctx, userID) {
		return nil, &provider.NotConnectedError{UserID: userID}
	}

	raws, err := c.provider.ListWindow(ctx, userID, query, maxMessages)
	if err != nil {
		return nil, err
	}

	return c.scoreAndMerge(ctx, userID, raws, false, aggregate.OnDemandCaps)
}

// scanUser is the shared cursor-advancing pipeline behind scheduled sweeps
// and manual triggers. The cursor moves to the scan's start time, and only
// after fetch, score and merge have all succeeded.
func (c *Coordinator) scanUser(ctx context.Context, userID string, isAutoScan bool, caps aggregate.RetentionCaps) (*models.ScanRecord, error) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if !c.provider.IsConnected(ctx, userID) {
		return nil, &provider.NotConnectedError{UserID: userID}
	}

	start := c.now()

	settings, err := c.settings.GetAutoScanSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := start.Add(-firstRunLookback)
	if settings.LastAutoScan != nil {
		since = *settings.LastAutoScan
	}

	raws, err := c.provider.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	record, err := c.scoreAndMerge(ctx, userID, raws, isAutoScan, caps)
	if err != nil {
		return nil, err
	}

	// An empty window is still a completed scan; advancing keeps the
	// lookback from growing unboundedly for quiet mailboxes.
	patch := store.SettingsPatch{LastAutoScan: &start}
	if err := c.settings.UpdateAutoScanSettings(ctx, userID, patch); err != nil {
		return nil, err
	}

	return record, nil
}

// scoreAndMerge normalises, dedups, scores and merges a fetched batch. On an
// empty (or fully deduplicated) batch it still merges, so LastScannedAt and
// the history log reflect the scan.
func (c *Coordinator) scoreAndMerge(ctx context.Context, userID string, raws []models.RawMessage, isAutoScan bool, caps aggregate.RetentionCaps) (*models.ScanRecord, error) {
	batch := make([]models.ScoredMessage, 0, len(raws))
	processed := make([]string, 0, len(raws))

	for _, raw := range raws {
		if c.dedup != nil {
			seen, err := c.dedup.Seen(ctx, userID, raw.ID)
			if err != nil {
				// Redis being down must not stop a scan; the merge
				// dedups by message ID anyway.
				slog.Warn("dedup check failed, processing message",
					"user", userID,
					"message_id", raw.ID,
					"error", err,
				)
			} else if seen {
				continue
			}
		}

		canonical := c.normalizer.Normalize(raw)
		assessment := c.scorer.Analyze(canonical)
		batch = append(batch, aggregate.TrimForStorage(canonical, assessment))
		processed = append(processed, raw.ID)
	}

	kept := aggregate.ApplyRetention(batch, caps)

	record, err := c.aggregator.Merge(ctx, userID, kept, isAutoScan)
	if err != nil {
		return nil, err
	}

	// Mark only after the merge lands, so a failed scan's window is
	// re-processed in full on retry.
	if c.dedup != nil {
		if err := c.dedup.Mark(ctx, userID, processed); err != nil {
			slog.Warn("dedup mark failed", "user", userID, "error", err)
		}
	}

	if c.alerts != nil {
		if err := c.alerts.PublishHighRisk(ctx, userID, kept); err != nil {
			slog.Warn("alert publish failed", "user", userID, "error", err)
		}
	}

	return record, nil
}

// userLock returns the mutex serialising scans for one user, creating it on
// first use. Locks are never removed; the user population is small and
// stable.
func (c *Coordinator) userLock(userID string) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	lock, ok := c.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.userLocks[userID] = lock
	}
	return lock
}
