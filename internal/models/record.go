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

package models

import "time"

// ScoredMessage is a canonical message trimmed for storage with its risk
// assessment flattened in. Subject and snippet are truncated; the full body
// and URL list are retained only for HIGH-risk messages.
type ScoredMessage struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Subject    string    `json:"subject"` // <= 200 chars
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	Snippet    string    `json:"snippet"` // <= 500 chars
	BodyText   string    `json:"body_text,omitempty"` // HIGH only
	URLs       []string  `json:"urls,omitempty"`      // HIGH only
	ReceivedAt time.Time `json:"received_at"`

	Score   float64     `json:"score"`
	Level   RiskLevel   `json:"level"`
	Flags   []string    `json:"flags"`
	Details RiskDetails `json:"details"`
}

// ScanSummary counts the stored messages of a record by risk level.
// Invariant: always recomputed from the full message set, never adjusted
// incrementally.
type ScanSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ScanRecord is the cumulative, deduplicated scan state for one user.
// Emails is keyed by provider message ID; display order is ReceivedAt
// descending (see Ordered).
type ScanRecord struct {
	UserID           string                   `json:"user_id"`
	LastScannedAt    time.Time                `json:"last_scanned_at"`
	LastScanNewCount int                      `json:"last_scan_new_count"`
	TotalEmailCount  int                      `json:"total_email_count"`
	Summary          ScanSummary              `json:"summary"`
	Emails           map[string]ScoredMessage `json:"emails"`
}

// Ordered returns the record's messages sorted by ReceivedAt descending,
// the order callers display them in.
func (r *ScanRecord) Ordered() []ScoredMessage {
	out := make([]ScoredMessage, 0, len(r.Emails))
	for _, m := range r.Emails {
		out = append(out, m)
	}
	sortByReceivedDesc(out)
	return out
}

// ScanHistoryEntry is one append-only audit log entry for a completed scan.
type ScanHistoryEntry struct {
	EntryID    string      `json:"entry_id"`
	ScannedAt  time.Time   `json:"scanned_at"`
	EmailCount int         `json:"email_count"`
	Summary    ScanSummary `json:"summary"`
	IsAutoScan bool        `json:"is_auto_scan"`
}

// AutoScanSettings is the per-user scheduling state. LastAutoScan is the
// cursor: nil means the user has never completed a sweep and the first run
// uses the default lookback window.
type AutoScanSettings struct {
	AutoScanEnabled  bool       `json:"auto_scan_enabled"`
	AutoScanInterval int        `json:"auto_scan_interval"` // minutes: 5, 15, 30 or 60
	LastAutoScan     *time.Time `json:"last_auto_scan,omitempty"`
}

// AllowedIntervals are the valid AutoScanInterval values in minutes.
var AllowedIntervals = []int{5, 15, 30, 60}

// DefaultAutoScanSettings are the settings created on first read for a user
// with no stored settings.
func DefaultAutoScanSettings() AutoScanSettings {
	return AutoScanSettings{
		AutoScanEnabled:  false,
		AutoScanInterval: 30,
	}
}
