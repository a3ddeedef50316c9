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

// Package models defines the data structures shared across the scan service.
package models

import "time"

// RawHeader is a single provider message header.
type RawHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawPart is one node of a provider message's MIME-like part tree.
// Data carries base64url-encoded content for leaf parts.
type RawPart struct {
	MimeType string     `json:"mimeType"`
	Data     string     `json:"body,omitempty"`
	Parts    []RawPart  `json:"parts,omitempty"`
	Headers  []RawHeader `json:"headers,omitempty"`
}

// RawMessage is a provider-fetched message before normalisation. The shape
// mirrors the Gmail-style REST message resource: a nested payload of parts
// plus top-level identifiers and a snippet.
type RawMessage struct {
	ID           string      `json:"id"`
	ThreadID     string      `json:"threadId"`
	Snippet      string      `json:"snippet"`
	InternalDate int64       `json:"internalDate,string,omitempty"` // ms since epoch
	Headers      []RawHeader `json:"headers,omitempty"`
	Payload      *RawPart    `json:"payload,omitempty"`
}

// CanonicalMessage is the normalised, provider-agnostic representation of a
// fetched message. Immutable once produced by the normaliser: every field is
// populated (possibly with its empty value), so downstream code never repeats
// default logic.
type CanonicalMessage struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	BodyText   string    `json:"body_text"`
	BodyHTML   string    `json:"body_html"`
	URLs       []string  `json:"urls"` // deduplicated, first-seen order
	ReceivedAt time.Time `json:"received_at"`
	Snippet    string    `json:"snippet"`
}
