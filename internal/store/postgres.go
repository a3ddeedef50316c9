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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// Postgres is the production Store. Scan records are stored as one JSONB
// document per user (document-store shape, provider agnostic); settings and
// history are relational.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store. It ensures the schema exists
// on creation.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	s := &Postgres{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure scan schema: %w", err)
	}
	slog.Info("scan store initialised")
	return s, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scan_results (
			user_id    TEXT PRIMARY KEY,
			record     JSONB NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS scan_history (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			entry      JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_scan_history_user ON scan_history(user_id);
		CREATE TABLE IF NOT EXISTS user_settings (
			user_id            TEXT PRIMARY KEY,
			auto_scan_enabled  BOOLEAN NOT NULL DEFAULT FALSE,
			auto_scan_interval INT NOT NULL DEFAULT 30,
			last_auto_scan     TIMESTAMPTZ,
			updated_at         TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_user_settings_enabled ON user_settings(auto_scan_enabled);
	`)
	return err
}

// GetScanRecord loads a user's scan record; nil when none exists.
func (s *Postgres) GetScanRecord(ctx context.Context, userID string) (*models.ScanRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `
		SELECT record FROM scan_results WHERE user_id = $1
	`, userID).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get scan record", UserID: userID, Err: err}
	}

	var record models.ScanRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, &PersistenceError{Op: "decode scan record", UserID: userID, Err: err}
	}
	if record.Emails == nil {
		record.Emails = make(map[string]models.ScoredMessage)
	}
	return &record, nil
}

// PutScanRecord upserts a user's scan record document.
func (s *Postgres) PutScanRecord(ctx context.Context, record *models.ScanRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return &PersistenceError{Op: "encode scan record", UserID: record.UserID, Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scan_results (user_id, record, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			record     = EXCLUDED.record,
			updated_at = NOW()
	`, record.UserID, doc)
	if err != nil {
		return &PersistenceError{Op: "put scan record", UserID: record.UserID, Err: err}
	}
	return nil
}

// AppendScanHistory appends one audit entry for a completed scan.
func (s *Postgres) AppendScanHistory(ctx context.Context, userID string, entry models.ScanHistoryEntry) error {
	doc, err := json.Marshal(entry)
	if err != nil {
		return &PersistenceError{Op: "encode history entry", UserID: userID, Err: err}
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO scan_history (user_id, entry) VALUES ($1, $2)
	`, userID, doc)
	if err != nil {
		return &PersistenceError{Op: "append scan history", UserID: userID, Err: err}
	}
	return nil
}

// GetAutoScanSettings returns the user's settings, creating defaults on
// first read.
func (s *Postgres) GetAutoScanSettings(ctx context.Context, userID string) (models.AutoScanSettings, error) {
	var (
		settings models.AutoScanSettings
		last     *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT auto_scan_enabled, auto_scan_interval, last_auto_scan
		FROM user_settings WHERE user_id = $1
	`, userID).Scan(&settings.AutoScanEnabled, &settings.AutoScanInterval, &last)
	if err == pgx.ErrNoRows {
		defaults := models.DefaultAutoScanSettings()
		_, err := s.pool.Exec(ctx, `
			INSERT INTO user_settings (user_id, auto_scan_enabled, auto_scan_interval)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, defaults.AutoScanEnabled, defaults.AutoScanInterval)
		if err != nil {
			return defaults, &PersistenceError{Op: "init settings", UserID: userID, Err: err}
		}
		return defaults, nil
	}
	if err != nil {
		return settings, &PersistenceError{Op: "get settings", UserID: userID, Err: err}
	}
	settings.LastAutoScan = last
	return settings, nil
}

// UpdateAutoScanSettings applies a partial update to the user's settings.
func (s *Postgres) UpdateAutoScanSettings(ctx context.Context, userID string, patch SettingsPatch) error {
	if patch.AutoScanInterval != nil && !validInterval(*patch.AutoScanInterval) {
		return fmt.Errorf("invalid auto-scan interval %d", *patch.AutoScanInterval)
	}

	current, err := s.GetAutoScanSettings(ctx, userID)
	if err != nil {
		return err
	}
	if patch.AutoScanEnabled != nil {
		current.AutoScanEnabled = *patch.AutoScanEnabled
	}
	if patch.AutoScanInterval != nil {
		current.AutoScanInterval = *patch.AutoScanInterval
	}
	if patch.LastAutoScan != nil {
		current.LastAutoScan = patch.LastAutoScan
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, auto_scan_enabled, auto_scan_interval, last_auto_scan, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			auto_scan_enabled  = EXCLUDED.auto_scan_enabled,
			auto_scan_interval = EXCLUDED.auto_scan_interval,
			last_auto_scan     = EXCLUDED.last_auto_scan,
			updated_at         = NOW()
	`, userID, current.AutoScanEnabled, current.AutoScanInterval, current.LastAutoScan)
	if err != nil {
		return &PersistenceError{Op: "update settings", UserID: userID, Err: err}
	}
	return nil
}

// ListAutoScanEnabled returns the users with auto-scan turned on, in stable
// scan order.
func (s *Postgres) ListAutoScanEnabled(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM user_settings
		WHERE auto_scan_enabled
		ORDER BY user_id
	`)
	if err != nil {
		return nil, &PersistenceError{Op: "list enabled users", Err: err}
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, &PersistenceError{Op: "scan enabled user", Err: err}
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
