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

package aggregate

import "github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"

// RetentionCaps bounds how many MEDIUM and LOW results one batch may
// contribute. HIGH results are never dropped. The caps apply per batch,
// before merge — messages already persisted are never evicted.
type RetentionCaps struct {
	Medium int
	Low    int
}

// Per-batch caps for the two scan paths. Scheduled sweeps get looser caps
// because they run unattended and batch less often.
var (
	OnDemandCaps  = RetentionCaps{Medium: 100, Low: 50}
	ScheduledCaps = RetentionCaps{Medium: 200, Low: 100}
)

// ApplyRetention partitions a scored batch by level and drops per-batch
// overflow: all HIGH survive, then up to the cap of MEDIUM and LOW in batch
// order. The relative order of survivors is preserved.
func ApplyRetention(batch []models.ScoredMessage, caps RetentionCaps) []models.ScoredMessage {
	kept := make([]models.ScoredMessage, 0, len(batch))
	medium, low := 0, 0

	for _, m := range batch {
		switch m.Level {
		case models.RiskHigh:
			kept = append(kept, m)
		case models.RiskMedium:
			if medium < caps.Medium {
				kept = append(kept, m)
				medium++
			}
		default:
			if low < caps.Low {
				kept = append(kept, m)
				low++
			}
		}
	}
	return kept
}

const (
	maxStoredSubject = 200
	maxStoredSnippet = 500
)

// TrimForStorage flattens a canonical message and its assessment into the
// stored form: subject and snippet truncated, body and URL list retained
// only for HIGH-risk messages.
func TrimForStorage(msg models.CanonicalMessage, assessment models.RiskAssessment) models.ScoredMessage {
	stored := models.ScoredMessage{
		ID:         msg.ID,
		ThreadID:   msg.ThreadID,
		Subject:    truncate(msg.Subject, maxStoredSubject),
		Sender:     msg.Sender,
		SenderName: msg.SenderName,
		Snippet:    truncate(msg.Snippet, maxStoredSnippet),
		ReceivedAt: msg.ReceivedAt,
		Score:      assessment.Score,
		Level:      assessment.Level,
		Flags:      assessment.Flags,
		Details:    assessment.Details,
	}

	if assessment.Level == models.RiskHigh {
		stored.BodyText = msg.BodyText
		stored.URLs = msg.URLs
	}
	return stored
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
