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

package models

// RiskLevel classifies a message's overall phishing risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// MaxFlags is the cap on persisted risk flags per message.
const MaxFlags = 5

// URLAnalysis is the URL sub-analysis detail.
type URLAnalysis struct {
	Score          float64  `json:"score"` // 0..100
	TotalURLs      int      `json:"total_urls"`
	SuspiciousURLs []string `json:"suspicious_urls"`
}

// KeywordAnalysis is the phishing-keyword sub-analysis detail.
type KeywordAnalysis struct {
	Score    float64  `json:"score"` // 0..100
	Keywords []string `json:"keywords"` // distinct matches, first-occurrence order
}

// SenderAnalysis is the sender-address sub-analysis detail.
type SenderAnalysis struct {
	Score        float64 `json:"score"` // 0..100
	IsSuspicious bool    `json:"is_suspicious"`
	Reason       string  `json:"reason,omitempty"`
}

// RiskDetails groups the three sub-analyses.
type RiskDetails struct {
	URLAnalysis     URLAnalysis     `json:"url_analysis"`
	KeywordAnalysis KeywordAnalysis `json:"keyword_analysis"`
	SenderAnalysis  SenderAnalysis  `json:"sender_analysis"`
}

// RiskAssessment is the scorer's deterministic output for one message.
// Never mutated after creation.
type RiskAssessment struct {
	Score   float64     `json:"score"` // 0..1
	Level   RiskLevel   `json:"level"`
	Flags   []string    `json:"flags"` // fixed assembly order, at most MaxFlags
	Details RiskDetails `json:"details"`
}
