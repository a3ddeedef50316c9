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

// Package scoring implements the deterministic, rule-based phishing risk
// scorer. Three weighted sub-analyses (URLs, keywords, sender) each produce
// a 0..100 sub-score; the combined score is normalised to 0..1 and mapped to
// a LOW/MEDIUM/HIGH level. Analyze is pure and total: missing fields degrade
// to their empty defaults and never cause an error.
package scoring

import (
	"fmt"
	"strings"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// Sub-analysis weights and level thresholds.
const (
	urlWeight     = 0.35
	keywordWeight = 0.35
	senderWeight  = 0.30

	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// Scorer produces risk assessments for canonical messages. It holds no
// state; the zero value is usable, NewScorer exists for symmetry with the
// other pipeline components.
type Scorer struct{}

// NewScorer creates a risk scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Analyze scores a single message. Deterministic: identical input yields an
// identical assessment, including flag order and sub-scores.
func (s *Scorer) Analyze(msg models.CanonicalMessage) models.RiskAssessment {
	urls := analyzeURLs(msg.URLs)
	keywords := analyzeKeywords(msg.Subject, msg.BodyText)
	sender := analyzeSender(msg.Sender)

	weighted := urls.Score*urlWeight + keywords.Score*keywordWeight + sender.Score*senderWeight
	score := weighted / 100
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	level := models.RiskLow
	switch {
	case score >= highThreshold:
		level = models.RiskHigh
	case score >= mediumThreshold:
		level = models.RiskMedium
	}

	return models.RiskAssessment{
		Score: score,
		Level: level,
		Flags: buildFlags(urls, keywords, sender),
		Details: models.RiskDetails{
			URLAnalysis:     urls,
			KeywordAnalysis: keywords,
			SenderAnalysis:  sender,
		},
	}
}

// buildFlags assembles human-readable flags in a fixed order: URL indicator,
// keyword indicator, sender indicator. At most MaxFlags entries survive.
func buildFlags(urls models.URLAnalysis, keywords models.KeywordAnalysis, sender models.SenderAnalysis) []string {
	flags := []string{}

	if n := len(urls.SuspiciousURLs); n > 0 {
		flags = append(flags, fmt.Sprintf("%d suspicious URL(s) detected", n))
	}

	if len(keywords.Keywords) > 0 {
		listed := keywords.Keywords
		if len(listed) > models.MaxFlags {
			listed = listed[:models.MaxFlags]
		}
		flags = append(flags, fmt.Sprintf("phishing keywords: %s", strings.Join(listed, ", ")))
	}

	if sender.IsSuspicious && sender.Reason != "" {
		flags = append(flags, fmt.Sprintf("suspicious sender: %s", sender.Reason))
	}

	if len(flags) > models.MaxFlags {
		flags = flags[:models.MaxFlags]
	}
	return flags
}
