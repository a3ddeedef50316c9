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

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

const defaultPageSize = 50

// REST fetches mail through a Gmail-style REST API: a paged id-list endpoint
// followed by a per-message fetch. Each user gets their own OAuth'd HTTP
// client, built in main from the user's stored credentials.
type REST struct {
	clients   map[string]*http.Client // keyed by user id
	baseURL   string
	pageSize  int
	pageDelay time.Duration // throttle between list pages
}

// RESTConfig holds the adapter's construction parameters.
type RESTConfig struct {
	Clients   map[string]*http.Client
	BaseURL   string
	PageSize  int
	PageDelay time.Duration
}

// NewREST creates the REST mail provider adapter.
func NewREST(cfg RESTConfig) *REST {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &REST{
		clients:   cfg.Clients,
		baseURL:   cfg.BaseURL,
		pageSize:  pageSize,
		pageDelay: cfg.PageDelay,
	}
}

// IsConnected reports whether the user has a configured mail client.
func (r *REST) IsConnected(_ context.Context, userID string) bool {
	_, ok := r.clients[userID]
	return ok
}

// ListSince fetches all messages received strictly after since, newest
// first (the API returns newest-first pages).
func (r *REST) ListSince(ctx context.Context, userID string, since time.Time) ([]models.RawMessage, error) {
	query := fmt.Sprintf("after:%d", since.Unix())
	return r.list(ctx, userID, query, 0)
}

// ListWindow fetches up to maxResults messages matching the query.
func (r *REST) ListWindow(ctx context.Context, userID, query string, maxResults int) ([]models.RawMessage, error) {
	return r.list(ctx, userID, query, maxResults)
}

// listResponse is one page of the id-list endpoint.
type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	NextPageToken string `json:"nextPageToken"`
}

// list pages through the id-list endpoint and fetches each message in full.
// maxResults of 0 means unbounded.
func (r *REST) list(ctx context.Context, userID, query string, maxResults int) ([]models.RawMessage, error) {
	client, ok := r.clients[userID]
	if !ok {
		return nil, &NotConnectedError{UserID: userID}
	}

	var messages []models.RawMessage
	pageToken := ""
	pageCount := 0

	for {
		if pageCount > 0 && r.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return messages, ctx.Err()
			case <-time.After(r.pageDelay):
			}
		}

		params := url.Values{}
		if query != "" {
			params.Set("q", query)
		}
		params.Set("maxResults", fmt.Sprint(r.pageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		listURL := fmt.Sprintf("%s/users/%s/messages?%s", r.baseURL, url.PathEscape(userID), params.Encode())
		var page listResponse
		if err := r.getJSON(ctx, client, userID, "list messages", listURL, &page); err != nil {
			return nil, err
		}
		pageCount++

		for _, stub := range page.Messages {
			msg, err := r.fetchMessage(ctx, client, userID, stub.ID)
			if err != nil {
				return nil, err
			}
			if msg == nil {
				continue // deleted between list and fetch
			}
			messages = append(messages, *msg)
			if maxResults > 0 && len(messages) >= maxResults {
				return messages, nil
			}
		}

		if page.NextPageToken == "" {
			return messages, nil
		}
		pageToken = page.NextPageToken
	}
}

// fetchMessage retrieves one full message. A 404 is not an error: the
// message was deleted between listing and fetching.
func (r *REST) fetchMessage(ctx context.Context, client *http.Client, userID, messageID string) (*models.RawMessage, error) {
	fetchURL := fmt.Sprintf("%s/users/%s/messages/%s?format=full",
		r.baseURL, url.PathEscape(userID), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "fetch message", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		slog.Warn("message not found (may have been deleted)",
			"user", userID,
			"message_id", messageID,
		)
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthExpiredError{UserID: userID, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransientError{Op: "fetch message", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var msg models.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", messageID, err)
	}
	return &msg, nil
}

// getJSON performs a GET and decodes the JSON response, mapping HTTP status
// to the provider error taxonomy.
func (r *REST) getJSON(ctx context.Context, client *http.Client, userID, op, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthExpiredError{UserID: userID, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &TransientError{Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s returned HTTP %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
