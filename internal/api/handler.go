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

// Package api exposes the scan service over HTTP. Handlers are thin: they
// decode, delegate to the coordinator or store, and encode. All scan logic
// lives in the core packages.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/normalize"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/provider"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/scheduler"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/scoring"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/store"
)

// Handler serves the scan service's HTTP endpoints.
type Handler struct {
	coordinator *scheduler.Coordinator
	store       store.Store
	scorer      *scoring.Scorer
}

// NewHandler creates the HTTP handler.
func NewHandler(coordinator *scheduler.Coordinator, st store.Store, scorer *scoring.Scorer) *Handler {
	return &Handler{
		coordinator: coordinator,
		store:       st,
		scorer:      scorer,
	}
}

// Routes registers all endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scan/{user}", h.triggerScan)
	mux.HandleFunc("GET /scan/{user}", h.getScanRecord)
	mux.HandleFunc("GET /settings/{user}", h.getSettings)
	mux.HandleFunc("PATCH /settings/{user}", h.patchSettings)
	mux.HandleFunc("GET /scheduler/status", h.schedulerStatus)
	mux.HandleFunc("POST /analyze", h.analyze)
	mux.HandleFunc("GET /health", h.health)
	return mux
}

// scanRecordResponse is the wire form of a scan record: the email map is
// flattened to the display ordering.
type scanRecordResponse struct {
	UserID           string                 `json:"user_id"`
	LastScannedAt    time.Time              `json:"last_scanned_at"`
	LastScanNewCount int                    `json:"last_scan_new_count"`
	TotalEmailCount  int                    `json:"total_email_count"`
	Summary          models.ScanSummary     `json:"summary"`
	Emails           []models.ScoredMessage `json:"emails"`
}

func toResponse(record *models.ScanRecord) scanRecordResponse {
	return scanRecordResponse{
		UserID:           record.UserID,
		LastScannedAt:    record.LastScannedAt,
		LastScanNewCount: record.LastScanNewCount,
		TotalEmailCount:  record.TotalEmailCount,
		Summary:          record.Summary,
		Emails:           record.Ordered(),
	}
}

// triggerScan runs the cursor-advancing scan pipeline for one user and
// returns the updated record.
func (h *Handler) triggerScan(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	record, err := h.coordinator.TriggerUserScan(r.Context(), userID)
	if err != nil {
		h.writeScanError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(record))
}

// getScanRecord returns the stored cumulative record for a user.
func (h *Handler) getScanRecord(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	record, err := h.store.GetScanRecord(r.Context(), userID)
	if err != nil {
		slog.Error("scan record lookup failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no scan record for user")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(record))
}

// getSettings returns a user's auto-scan settings, creating the defaults on
// first read.
func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	settings, err := h.store.GetAutoScanSettings(r.Context(), userID)
	if err != nil {
		slog.Error("settings lookup failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// settingsRequest is the PATCH body. Absent fields are left unchanged.
type settingsRequest struct {
	AutoScanEnabled  *bool `json:"auto_scan_enabled"`
	AutoScanInterval *int  `json:"auto_scan_interval"`
}

// patchSettings applies a partial settings update and returns the result.
func (h *Handler) patchSettings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AutoScanEnabled == nil && req.AutoScanInterval == nil {
		writeError(w, http.StatusBadRequest, "no settings fields in body")
		return
	}

	patch := store.SettingsPatch{
		AutoScanEnabled:  req.AutoScanEnabled,
		AutoScanInterval: req.AutoScanInterval,
	}
	if err := h.store.UpdateAutoScanSettings(r.Context(), userID, patch); err != nil {
		var perr *store.PersistenceError
		if errors.As(err, &perr) {
			slog.Error("settings update failed", "user", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "storage unavailable")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.store.GetAutoScanSettings(r.Context(), userID)
	if err != nil {
		slog.Error("settings readback failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// schedulerStatus reports whether the sweep loop is installed and whether a
// sweep is currently running.
func (h *Handler) schedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.Status())
}

// analyzeRequest is ad hoc content to score without fetching or storing.
type analyzeRequest struct {
	Subject string   `json:"subject"`
	Sender  string   `json:"sender"`
	Body    string   `json:"body"`
	URLs    []string `json:"urls,omitempty"`
}

// analyze scores pasted content. URLs are extracted from the body when the
// caller does not supply them.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	urls := req.URLs
	if urls == nil {
		urls = normalize.ExtractURLs(req.Body)
	}

	assessment := h.scorer.Analyze(models.CanonicalMessage{
		Subject:  req.Subject,
		Sender:   req.Sender,
		BodyText: req.Body,
		URLs:     urls,
	})

	writeJSON(w, http.StatusOK, assessment)
}

// health is the liveness endpoint.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeScanError maps pipeline errors onto HTTP statuses.
func (h *Handler) writeScanError(w http.ResponseWriter, userID string, err error) {
	var authErr *provider.AuthExpiredError
	switch {
	case provider.IsNotConnected(err):
		writeError(w, http.StatusConflict, fmt.Sprintf("user %s has no connected mailbox", userID))
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, "mailbox credentials expired, reconnect required")
	case provider.IsTransient(err):
		slog.Warn("scan failed transiently", "user", userID, "error", err)
		writeError(w, http.StatusBadGateway, "mail provider unavailable, retry later")
	default:
		slog.Error("scan failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "scan failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
