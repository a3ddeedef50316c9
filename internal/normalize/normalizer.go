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

// Package normalize converts raw provider messages into canonical messages.
// Normalisation is total: malformed input degrades to empty fields, it never
// fails the message. All optional-field defaulting happens here so the
// scorer and aggregator never repeat it.
package normalize

import (
	"encoding/base64"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

var (
	// senderPattern splits a `Name <addr>` header into its two parts.
	senderPattern = regexp.MustCompile(`^\s*"?([^"<]*)"?\s*<([^>]+)>\s*$`)

	// urlPattern matches http(s) URL tokens in body text.
	urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// Normalizer converts raw provider payloads into canonical messages.
type Normalizer struct{}

// NewNormalizer creates a message normaliser.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize produces the canonical form of a raw provider message.
func (n *Normalizer) Normalize(raw models.RawMessage) models.CanonicalMessage {
	subject := headerValue(raw, "Subject")
	senderName, senderEmail := splitSender(headerValue(raw, "From"))

	bodyText, bodyHTML := extractBodies(raw.Payload)
	if bodyText == "" && bodyHTML != "" {
		bodyText = htmlToText(bodyHTML)
	}

	return models.CanonicalMessage{
		ID:         raw.ID,
		ThreadID:   raw.ThreadID,
		Subject:    subject,
		Sender:     senderEmail,
		SenderName: senderName,
		BodyText:   bodyText,
		BodyHTML:   bodyHTML,
		URLs:       extractURLs(bodyText + " " + bodyHTML),
		ReceivedAt: receivedAt(raw),
		Snippet:    raw.Snippet,
	}
}

// headerValue looks up a header by name, case-insensitively, checking the
// top-level headers first and then the payload headers. First match wins.
func headerValue(raw models.RawMessage, name string) string {
	for _, h := range raw.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	if raw.Payload != nil {
		for _, h := range raw.Payload.Headers {
			if strings.EqualFold(h.Name, name) {
				return h.Value
			}
		}
	}
	return ""
}

// splitSender parses a `Name <addr>` From header. When no angle-bracket form
// matches, the whole header is treated as the address.
func splitSender(from string) (name, email string) {
	if from == "" {
		return "", ""
	}
	if m := senderPattern.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", strings.TrimSpace(from)
}

// extractBodies walks the part tree depth-first and returns the first
// text/plain and first text/html contents found. At each nesting level the
// first match wins over later siblings.
func extractBodies(part *models.RawPart) (text, html string) {
	if part == nil {
		return "", ""
	}

	mime := strings.ToLower(part.MimeType)
	switch {
	case strings.HasPrefix(mime, "text/plain"):
		if part.Data != "" {
			return decodeBody(part.Data), ""
		}
	case strings.HasPrefix(mime, "text/html"):
		if part.Data != "" {
			return "", decodeBody(part.Data)
		}
	}

	for _, child := range part.Parts {
		t, h := extractBodies(&child)
		if text == "" && t != "" {
			text = t
		}
		if html == "" && h != "" {
			html = h
		}
		if text != "" && html != "" {
			break
		}
	}
	return text, html
}

// decodeBody decodes a base64url body segment (`-` -> `+`, `_` -> `/`).
// Decode failures are local: the segment is logged and treated as empty.
func decodeBody(data string) string {
	normalised := strings.NewReplacer("-", "+", "_", "/").Replace(data)
	if pad := len(normalised) % 4; pad != 0 {
		normalised += strings.Repeat("=", 4-pad)
	}

	decoded, err := base64.StdEncoding.DecodeString(normalised)
	if err != nil {
		slog.Warn("failed to decode message body segment", "error", err, "segment_len", len(data))
		return ""
	}
	return string(decoded)
}

var (
	tagPattern        = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	anyTagPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// htmlToText synthesises a plain-text body from HTML: script/style blocks
// are dropped, tags stripped, whitespace collapsed.
func htmlToText(html string) string {
	s := tagPattern.ReplaceAllString(html, " ")
	s = anyTagPattern.ReplaceAllString(s, " ")
	s = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// trailingPunct are characters stripped from the end of extracted URLs —
// sentence punctuation that the URL regexp swallows.
const trailingPunct = ".,;:!?)]}>\"'"

// ExtractURLs pulls http(s) URLs out of plain text, deduplicating while
// preserving first-seen order. Exposed for callers that analyse pasted
// content without a provider payload.
func ExtractURLs(content string) []string {
	return extractURLs(content)
}

func extractURLs(content string) []string {
	seen := make(map[string]struct{})
	urls := []string{}

	for _, match := range urlPattern.FindAllString(content, -1) {
		u := strings.TrimRight(match, trailingPunct)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// receivedAt resolves the message timestamp: the provider's internal date
// when present, the Date header otherwise. UTC either way.
func receivedAt(raw models.RawMessage) time.Time {
	if raw.InternalDate > 0 {
		return time.UnixMilli(raw.InternalDate).UTC()
	}
	if v := headerValue(raw, "Date"); v != "" {
		if t, err := mail.ParseDate(v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
