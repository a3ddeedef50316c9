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

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// fakeStore is an in-memory RecordStore with optional injected failures.
type fakeStore struct {
	records map[string]*models.ScanRecord
	history map[string][]models.ScanHistoryEntry
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]*models.ScanRecord),
		history: make(map[string][]models.ScanHistoryEntry),
	}
}

func (f *fakeStore) GetScanRecord(_ context.Context, userID string) (*models.ScanRecord, error) {
	return f.records[userID], nil
}

func (f *fakeStore) PutScanRecord(_ context.Context, record *models.ScanRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.records[record.UserID] = record
	return nil
}

func (f *fakeStore) AppendScanHistory(_ context.Context, userID string, entry models.ScanHistoryEntry) error {
	f.history[userID] = append(f.history[userID], entry)
	return nil
}

func scored(id string, level models.RiskLevel, received time.Time) models.ScoredMessage {
	return models.ScoredMessage{ID: id, Level: level, ReceivedAt: received}
}

// TestMerge_FirstScan verifies a merge with no existing record creates one
// with correct counts and an audit entry.
func TestMerge_FirstScan(t *testing.T) {
	fs := newFakeStore()
	agg := NewAggregator(fs)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	batch := []models.ScoredMessage{
		scored("a", models.RiskHigh, base),
		scored("b", models.RiskLow, base.Add(time.Minute)),
	}

	record, err := agg.Merge(context.Background(), "user1", batch, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.TotalEmailCount != 2 || record.LastScanNewCount != 2 {
		t.Errorf("counts: total %d new %d", record.TotalEmailCount, record.LastScanNewCount)
	}
	if record.Summary != (models.ScanSummary{Total: 2, High: 1, Low: 1}) {
		t.Errorf("summary %+v", record.Summary)
	}
	if record.LastScannedAt.IsZero() {
		t.Error("lastScannedAt not set")
	}
	if len(fs.history["user1"]) != 1 {
		t.Errorf("history entries: %d", len(fs.history["user1"]))
	}
	if fs.history["user1"][0].IsAutoScan {
		t.Error("history entry should not be marked auto")
	}
}

// TestMerge_Idempotent verifies merging the same batch twice leaves the
// email set identical to merging it once.
func TestMerge_Idempotent(t *testing.T) {
	fs := newFakeStore()
	agg := NewAggregator(fs)
	base := time.Now().UTC()

	batch := []models.ScoredMessage{
		scored("a", models.RiskHigh, base),
		scored("b", models.RiskMedium, base),
		scored("c", models.RiskLow, base),
	}

	first, err := agg.Merge(context.Background(), "u", batch, true)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	second, err := agg.Merge(context.Background(), "u", batch, true)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	if second.TotalEmailCount != first.TotalEmailCount {
		t.Errorf("total changed: %d -> %d", first.TotalEmailCount, second.TotalEmailCount)
	}
	if second.Summary != first.Summary {
		t.Errorf("summary changed: %+v -> %+v", first.Summary, second.Summary)
	}
	for id := range first.Emails {
		if _, ok := second.Emails[id]; !ok {
			t.Errorf("message %s lost on second merge", id)
		}
	}
}

// TestMerge_OverlappingBatches verifies distinct-id counting across two
// overlapping batches: the final total is the distinct count, not the sum.
func TestMerge_OverlappingBatches(t *testing.T) {
	fs := newFakeStore()
	agg := NewAggregator(fs)
	base := time.Now().UTC()

	_, err := agg.Merge(context.Background(), "u", []models.ScoredMessage{
		scored("a", models.RiskLow, base),
		scored("b", models.RiskLow, base),
	}, false)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}

	record, err := agg.Merge(context.Background(), "u", []models.ScoredMessage{
		scored("b", models.RiskMedium, base), // overwrite, last write wins
		scored("c", models.RiskLow, base),
	}, false)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	if record.TotalEmailCount != 3 {
		t.Errorf("total %d, want 3 distinct ids", record.TotalEmailCount)
	}
	if record.Emails["b"].Level != models.RiskMedium {
		t.Errorf("overwrite lost: b is %s", record.Emails["b"].Level)
	}
	if record.Summary != (models.ScanSummary{Total: 3, Medium: 1, Low: 2}) {
		t.Errorf("summary %+v", record.Summary)
	}
	if record.LastScanNewCount != 2 {
		t.Errorf("lastScanNewCount %d, want batch size 2", record.LastScanNewCount)
	}
}

// TestMerge_SummaryInvariant verifies the summary always matches counts
// derived by filtering the email set by level.
func TestMerge_SummaryInvariant(t *testing.T) {
	fs := newFakeStore()
	agg := NewAggregator(fs)
	base := time.Now().UTC()

	var batch []models.ScoredMessage
	levels := []models.RiskLevel{models.RiskHigh, models.RiskMedium, models.RiskLow}
	for i := 0; i < 30; i++ {
		batch = append(batch, scored(fmt.Sprintf("m%d", i), levels[i%3], base.Add(time.Duration(i)*time.Second)))
	}

	record, err := agg.Merge(context.Background(), "u", batch, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	var high, medium, low int
	for _, m := range record.Emails {
		switch m.Level {
		case models.RiskHigh:
			high++
		case models.RiskMedium:
			medium++
		default:
			low++
		}
	}
	want := models.ScanSummary{Total: len(record.Emails), High: high, Medium: medium, Low: low}
	if record.Summary != want {
		t.Errorf("summary %+v, want %+v", record.Summary, want)
	}
}

// TestMerge_EmptyIDsSkipped verifies batch items without a provider id are
// ignored by the merge.
func TestMerge_EmptyIDsSkipped(t *testing.T) {
	fs := newFakeStore()
	agg := NewAggregator(fs)

	record, err := agg.Merge(context.Background(), "u", []models.ScoredMessage{
		scored("", models.RiskHigh, time.Now()),
		scored("a", models.RiskLow, time.Now()),
	}, false)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if record.TotalEmailCount != 1 {
		t.Errorf("total %d, want 1", record.TotalEmailCount)
	}
}

// TestMerge_StoreFailurePropagates verifies a write failure reaches the
// caller unchanged and nothing is recorded.
func TestMerge_StoreFailurePropagates(t *testing.T) {
	fs := newFakeStore()
	fs.putErr = errors.New("disk on fire")
	agg := NewAggregator(fs)

	_, err := agg.Merge(context.Background(), "u", []models.ScoredMessage{scored("a", models.RiskLow, time.Now())}, false)
	if err == nil || !errors.Is(err, fs.putErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(fs.history["u"]) != 0 {
		t.Error("history should not be written after a failed put")
	}
}

// TestOrdered verifies display ordering is receivedAt descending.
func TestOrdered(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	record := &models.ScanRecord{Emails: map[string]models.ScoredMessage{
		"old":    scored("old", models.RiskLow, base),
		"newest": scored("newest", models.RiskLow, base.Add(2*time.Hour)),
		"mid":    scored("mid", models.RiskLow, base.Add(time.Hour)),
	}}

	ordered := record.Ordered()
	ids := make([]string, len(ordered))
	for i, m := range ordered {
		ids[i] = m.ID
	}
	if got := strings.Join(ids, ","); got != "newest,mid,old" {
		t.Errorf("order %s, want newest,mid,old", got)
	}
}

// TestApplyRetention_PerBatchCaps verifies the on-demand caps: every HIGH
// survives, MEDIUM is capped at 100 in batch order, overflow is dropped.
func TestApplyRetention_PerBatchCaps(t *testing.T) {
	var batch []models.ScoredMessage
	for i := 0; i < 5; i++ {
		batch = append(batch, scored(fmt.Sprintf("h%d", i), models.RiskHigh, time.Now()))
	}
	for i := 0; i < 150; i++ {
		batch = append(batch, scored(fmt.Sprintf("m%d", i), models.RiskMedium, time.Now()))
	}

	kept := ApplyRetention(batch, OnDemandCaps)

	var high, medium int
	for _, m := range kept {
		switch m.Level {
		case models.RiskHigh:
			high++
		case models.RiskMedium:
			medium++
		}
	}
	if high != 5 {
		t.Errorf("high kept %d, want all 5", high)
	}
	if medium != 100 {
		t.Errorf("medium kept %d, want 100", medium)
	}
	// Batch order: the first 100 mediums survive.
	last := kept[len(kept)-1]
	if last.ID != "m99" {
		t.Errorf("last kept medium %s, want m99", last.ID)
	}
}

// TestApplyRetention_LowCaps verifies LOW capping for scheduled sweeps.
func TestApplyRetention_LowCaps(t *testing.T) {
	var batch []models.ScoredMessage
	for i := 0; i < 120; i++ {
		batch = append(batch, scored(fmt.Sprintf("l%d", i), models.RiskLow, time.Now()))
	}

	if got := len(ApplyRetention(batch, ScheduledCaps)); got != 100 {
		t.Errorf("scheduled low kept %d, want 100", got)
	}
	if got := len(ApplyRetention(batch, OnDemandCaps)); got != 50 {
		t.Errorf("on-demand low kept %d, want 50", got)
	}
}

// TestTrimForStorage verifies truncation and the HIGH-only body retention.
func TestTrimForStorage(t *testing.T) {
	msg := models.CanonicalMessage{
		ID:       "m",
		Subject:  strings.Repeat("s", 250),
		Snippet:  strings.Repeat("p", 600),
		BodyText: "full body",
		URLs:     []string{"http://x.example.com"},
	}

	high := TrimForStorage(msg, models.RiskAssessment{Level: models.RiskHigh, Score: 0.9})
	if len([]rune(high.Subject)) != 200 || len([]rune(high.Snippet)) != 500 {
		t.Errorf("truncation: subject %d snippet %d", len(high.Subject), len(high.Snippet))
	}
	if high.BodyText != "full body" || len(high.URLs) != 1 {
		t.Error("HIGH message should retain body and urls")
	}

	low := TrimForStorage(msg, models.RiskAssessment{Level: models.RiskLow, Score: 0.1})
	if low.BodyText != "" || len(low.URLs) != 0 {
		t.Error("LOW message should not retain body or urls")
	}
}
