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

package normalize

import (
	"encoding/base64"
	"reflect"
	"testing"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// TestNormalize_PlainTextMessage verifies the straightforward path: headers,
// sender split, plain-text body, timestamp.
func TestNormalize_PlainTextMessage(t *testing.T) {
	raw := models.RawMessage{
		ID:           "m1",
		ThreadID:     "t1",
		Snippet:      "hello there",
		InternalDate: 1700000000000,
		Headers: []models.RawHeader{
			{Name: "subject", Value: "Hello"},
			{Name: "FROM", Value: `Alice Smith <alice@example.com>`},
		},
		Payload: &models.RawPart{
			MimeType: "text/plain",
			Data:     b64url("hi, see https://example.com/a."),
		},
	}

	got := NewNormalizer().Normalize(raw)

	if got.Subject != "Hello" {
		t.Errorf("subject %q", got.Subject)
	}
	if got.Sender != "alice@example.com" || got.SenderName != "Alice Smith" {
		t.Errorf("sender %q / %q", got.Sender, got.SenderName)
	}
	if got.BodyText != "hi, see https://example.com/a." {
		t.Errorf("body %q", got.BodyText)
	}
	if want := []string{"https://example.com/a"}; !reflect.DeepEqual(got.URLs, want) {
		t.Errorf("urls %v, want %v", got.URLs, want)
	}
	if want := time.UnixMilli(1700000000000).UTC(); !got.ReceivedAt.Equal(want) {
		t.Errorf("receivedAt %v, want %v", got.ReceivedAt, want)
	}
	if got.Snippet != "hello there" {
		t.Errorf("snippet %q", got.Snippet)
	}
}

// TestNormalize_SenderFallback verifies a From header without angle
// brackets is treated entirely as the address.
func TestNormalize_SenderFallback(t *testing.T) {
	raw := models.RawMessage{
		Headers: []models.RawHeader{{Name: "From", Value: "bob@example.com"}},
	}
	got := NewNormalizer().Normalize(raw)
	if got.Sender != "bob@example.com" || got.SenderName != "" {
		t.Errorf("sender %q / name %q", got.Sender, got.SenderName)
	}
}

// TestNormalize_PrefersPlainOverHTML verifies that in a multipart tree the
// text/plain part supplies the body even when an HTML part precedes it at a
// deeper level, and the first matching part at a level wins.
func TestNormalize_PrefersPlainOverHTML(t *testing.T) {
	raw := models.RawMessage{
		Payload: &models.RawPart{
			MimeType: "multipart/alternative",
			Parts: []models.RawPart{
				{MimeType: "text/html", Data: b64url("<p>html body</p>")},
				{MimeType: "text/plain", Data: b64url("first plain")},
				{MimeType: "text/plain", Data: b64url("second plain")},
			},
		},
	}

	got := NewNormalizer().Normalize(raw)
	if got.BodyText != "first plain" {
		t.Errorf("body %q, want first plain part", got.BodyText)
	}
	if got.BodyHTML != "<p>html body</p>" {
		t.Errorf("html %q", got.BodyHTML)
	}
}

// TestNormalize_HTMLOnly verifies tag stripping and whitespace collapsing
// when no plain part exists.
func TestNormalize_HTMLOnly(t *testing.T) {
	raw := models.RawMessage{
		Payload: &models.RawPart{
			MimeType: "text/html",
			Data:     b64url("<html><style>p{}</style><body><p>Click   <a href=\"https://example.com/x\">here</a></p>\n now</body></html>"),
		},
	}

	got := NewNormalizer().Normalize(raw)
	if got.BodyText != "Click here now" {
		t.Errorf("synthesised body %q", got.BodyText)
	}
	if len(got.URLs) != 1 || got.URLs[0] != "https://example.com/x" {
		t.Errorf("urls %v", got.URLs)
	}
}

// TestNormalize_MalformedBase64 verifies a decode failure is local to the
// segment and normalisation still succeeds.
func TestNormalize_MalformedBase64(t *testing.T) {
	raw := models.RawMessage{
		ID: "m2",
		Payload: &models.RawPart{
			MimeType: "multipart/mixed",
			Parts: []models.RawPart{
				{MimeType: "text/plain", Data: "%%% not base64 %%%"},
				{MimeType: "text/html", Data: b64url("<b>fallback</b>")},
			},
		},
	}

	got := NewNormalizer().Normalize(raw)
	if got.BodyText != "fallback" {
		t.Errorf("body %q, want html fallback after decode failure", got.BodyText)
	}
}

// TestNormalize_EmptyPayload verifies the zero-value message normalises to
// empty fields without panicking.
func TestNormalize_EmptyPayload(t *testing.T) {
	got := NewNormalizer().Normalize(models.RawMessage{})
	if got.Subject != "" || got.Sender != "" || got.BodyText != "" {
		t.Errorf("expected empty fields, got %+v", got)
	}
	if len(got.URLs) != 0 {
		t.Errorf("urls %v", got.URLs)
	}
	if !got.ReceivedAt.IsZero() {
		t.Errorf("receivedAt %v", got.ReceivedAt)
	}
}

// TestExtractURLs verifies trailing punctuation stripping and first-seen
// deduplication.
func TestExtractURLs(t *testing.T) {
	content := `see https://a.example.com/page. or (http://b.example.com/q?x=1), ` +
		`again https://a.example.com/page!`
	want := []string{"https://a.example.com/page", "http://b.example.com/q?x=1"}
	if got := extractURLs(content); !reflect.DeepEqual(got, want) {
		t.Errorf("extractURLs = %v, want %v", got, want)
	}
}

// TestNormalize_DateHeaderFallback verifies the Date header is used when the
// provider supplies no internal timestamp.
func TestNormalize_DateHeaderFallback(t *testing.T) {
	raw := models.RawMessage{
		Headers: []models.RawHeader{
			{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
		},
	}
	got := NewNormalizer().Normalize(raw)
	want := time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)
	if !got.ReceivedAt.Equal(want) {
		t.Errorf("receivedAt %v, want %v", got.ReceivedAt, want)
	}
}
