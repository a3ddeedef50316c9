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

// Package aggregate merges scored message batches into a user's cumulative
// scan record: idempotent merge-by-message-id, receivedAt-descending
// ordering, and a summary recomputed from the full resulting set on every
// merge. Per-batch retention caps live here too (retention.go).
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// RecordStore is the interface the aggregator needs to persist scan records.
// Implemented by store.Postgres and store.Memory.
type RecordStore interface {
	GetScanRecord(ctx context.Context, userID string) (*models.ScanRecord, error)
	PutScanRecord(ctx context.Context, record *models.ScanRecord) error
	AppendScanHistory(ctx context.Context, userID string, entry models.ScanHistoryEntry) error
}

// Aggregator merges scored batches into persisted scan records.
type Aggregator struct {
	store RecordStore
	now   func() time.Time
}

// NewAggregator creates an aggregator backed by the given store.
func NewAggregator(store RecordStore) *Aggregator {
	return &Aggregator{
		store: store,
		now:   time.Now,
	}
}

// Merge reads the user's existing record, merges the batch in, persists the
// result and appends an audit entry. The read-modify-write is not atomic;
// store failures propagate to the caller untouched. The returned record is
// the persisted state.
func (a *Aggregator) Merge(ctx context.Context, userID string, batch []models.ScoredMessage, isAutoScan bool) (*models.ScanRecord, error) {
	existing, err := a.store.GetScanRecord(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read scan record for %s: %w", userID, err)
	}

	record, newCount := mergeBatch(userID, existing, batch, a.now().UTC())

	if err := a.store.PutScanRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("write scan record for %s: %w", userID, err)
	}

	entry := models.ScanHistoryEntry{
		EntryID:    uuid.NewString(),
		ScannedAt:  record.LastScannedAt,
		EmailCount: len(batch),
		Summary:    record.Summary,
		IsAutoScan: isAutoScan,
	}
	if err := a.store.AppendScanHistory(ctx, userID, entry); err != nil {
		// The audit log is append-only and never read back by the
		// pipeline; a failed append must not fail the scan.
		slog.Warn("failed to append scan history", "user", userID, "error", err)
	}

	slog.Info("scan batch merged",
		"user", userID,
		"batch", len(batch),
		"new", newCount,
		"updated", len(batch)-newCount,
		"total", record.TotalEmailCount,
	)

	return record, nil
}

// mergeBatch performs the pure merge: seed a map from the existing record,
// insert/overwrite batch items by message ID (last write wins), recompute
// the summary from the full resulting set. Returns the new record and how
// many batch items were previously unseen (logging only).
func mergeBatch(userID string, existing *models.ScanRecord, batch []models.ScoredMessage, now time.Time) (*models.ScanRecord, int) {
	emails := make(map[string]models.ScoredMessage)
	if existing != nil {
		for id, m := range existing.Emails {
			emails[id] = m
		}
	}

	newCount := 0
	for _, m := range batch {
		if m.ID == "" {
			continue
		}
		if _, seen := emails[m.ID]; !seen {
			newCount++
		}
		emails[m.ID] = m
	}

	record := &models.ScanRecord{
		UserID:           userID,
		LastScannedAt:    now,
		LastScanNewCount: len(batch),
		TotalEmailCount:  len(emails),
		Summary:          summarize(emails),
		Emails:           emails,
	}
	return record, newCount
}

// summarize recounts the full message set by level. Always derived from the
// complete map — a summary that drifts from the set is a bug.
func summarize(emails map[string]models.ScoredMessage) models.ScanSummary {
	s := models.ScanSummary{Total: len(emails)}
	for _, m := range emails {
		switch m.Level {
		case models.RiskHigh:
			s.High++
		case models.RiskMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}
