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

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// Memory is the in-memory Store used by tests and storeless development.
// Records are copied on the way in and out so callers can't alias internal
// state.
type Memory struct {
	mu       sync.RWMutex
	records  map[string]*models.ScanRecord
	history  map[string][]models.ScanHistoryEntry
	settings map[string]models.AutoScanSettings
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records:  make(map[string]*models.ScanRecord),
		history:  make(map[string][]models.ScanHistoryEntry),
		settings: make(map[string]models.AutoScanSettings),
	}
}

// GetScanRecord returns a copy of the user's record; nil when none exists.
func (m *Memory) GetScanRecord(_ context.Context, userID string) (*models.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return copyRecord(record), nil
}

// PutScanRecord stores a copy of the record.
func (m *Memory) PutScanRecord(_ context.Context, record *models.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.UserID] = copyRecord(record)
	return nil
}

// AppendScanHistory appends an audit entry.
func (m *Memory) AppendScanHistory(_ context.Context, userID string, entry models.ScanHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = append(m.history[userID], entry)
	return nil
}

// History returns the audit entries recorded for a user. Test helper; the
// pipeline itself never reads history.
func (m *Memory) History(userID string) []models.ScanHistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ScanHistoryEntry, len(m.history[userID]))
	copy(out, m.history[userID])
	return out
}

// GetAutoScanSettings returns the user's settings, creating defaults on
// first read.
func (m *Memory) GetAutoScanSettings(_ context.Context, userID string) (models.AutoScanSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[userID]; ok {
		return s, nil
	}
	defaults := models.DefaultAutoScanSettings()
	m.settings[userID] = defaults
	return defaults, nil
}

// UpdateAutoScanSettings applies a partial update.
func (m *Memory) UpdateAutoScanSettings(_ context.Context, userID string, patch SettingsPatch) error {
	if patch.AutoScanInterval != nil && !validInterval(*patch.AutoScanInterval) {
		return fmt.Errorf("invalid auto-scan interval %d", *patch.AutoScanInterval)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.settings[userID]
	if !ok {
		current = models.DefaultAutoScanSettings()
	}
	if patch.AutoScanEnabled != nil {
		current.AutoScanEnabled = *patch.AutoScanEnabled
	}
	if patch.AutoScanInterval != nil {
		current.AutoScanInterval = *patch.AutoScanInterval
	}
	if patch.LastAutoScan != nil {
		t := *patch.LastAutoScan
		current.LastAutoScan = &t
	}
	m.settings[userID] = current
	return nil
}

// ListAutoScanEnabled returns the users with auto-scan turned on, sorted for
// stable scan order.
func (m *Memory) ListAutoScanEnabled(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []string
	for user, s := range m.settings {
		if s.AutoScanEnabled {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users, nil
}

func copyRecord(r *models.ScanRecord) *models.ScanRecord {
	dup := *r
	dup.Emails = make(map[string]models.ScoredMessage, len(r.Emails))
	for id, msg := range r.Emails {
		dup.Emails[id] = msg
	}
	return &dup
}
