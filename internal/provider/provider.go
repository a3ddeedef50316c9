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

// Package provider fetches raw messages from the user's mail provider.
// It defines the MailProvider interface the pipeline consumes, the provider
// error taxonomy, and a REST adapter for Gmail-style APIs (list message ids,
// then fetch each message) using per-user OAuth clients.
package provider

import (
	"context"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// MailProvider is the pipeline's view of a mail backend. Implementations
// own timeout and retry policy; the pipeline itself enforces none.
type MailProvider interface {
	// IsConnected reports whether the user has usable mail credentials.
	IsConnected(ctx context.Context, userID string) bool

	// ListSince fetches full messages received strictly after the given
	// time, newest first.
	ListSince(ctx context.Context, userID string, since time.Time) ([]models.RawMessage, error)

	// ListWindow fetches up to maxResults full messages matching an
	// optional provider query, newest first.
	ListWindow(ctx context.Context, userID, query string, maxResults int) ([]models.RawMessage, error)
}
