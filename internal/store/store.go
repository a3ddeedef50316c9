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

// Package store persists scan records, scan history and per-user auto-scan
// settings. One interface, two implementations: Postgres for production and
// an in-memory store for tests and storeless development — selected once at
// construction, never re-checked per call.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// Store is the full persistence surface of the scan pipeline.
//
// GetScanRecord returns nil (no error) when the user has no record yet.
// AppendScanHistory is append-only; the pipeline never reads it back.
// GetAutoScanSettings creates and returns defaults on first read.
type Store interface {
	GetScanRecord(ctx context.Context, userID string) (*models.ScanRecord, error)
	PutScanRecord(ctx context.Context, record *models.ScanRecord) error
	AppendScanHistory(ctx context.Context, userID string, entry models.ScanHistoryEntry) error

	GetAutoScanSettings(ctx context.Context, userID string) (models.AutoScanSettings, error)
	UpdateAutoScanSettings(ctx context.Context, userID string, patch SettingsPatch) error
	ListAutoScanEnabled(ctx context.Context) ([]string, error)
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	AutoScanEnabled  *bool
	AutoScanInterval *int
	LastAutoScan     *time.Time
}

// validInterval reports whether an interval is one of the allowed values.
func validInterval(minutes int) bool {
	for _, v := range models.AllowedIntervals {
		if v == minutes {
			return true
		}
	}
	return false
}

// PersistenceError wraps a storage failure with its operation and user for
// the error taxonomy callers match on with errors.As.
type PersistenceError struct {
	Op     string
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s for user %s: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
