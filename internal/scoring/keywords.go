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

package scoring

import (
	"sort"
	"strings"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// analyzeKeywords matches the fixed phishing-keyword list against the
// lowercased subject + body. Each distinct match adds 10 points, capped at
// 100. Matched keywords are reported in first-occurrence order within the
// content.
func analyzeKeywords(subject, body string) models.KeywordAnalysis {
	content := strings.ToLower(subject + " " + body)

	type hit struct {
		keyword string
		pos     int
	}
	var hits []hit
	for _, kw := range phishingKeywords {
		if pos := strings.Index(content, kw); pos >= 0 {
			hits = append(hits, hit{keyword: kw, pos: pos})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	matched := make([]string, 0, len(hits))
	for _, h := range hits {
		matched = append(matched, h.keyword)
	}

	score := float64(len(matched)) * 10
	if score > 100 {
		score = 100
	}

	return models.KeywordAnalysis{
		Score:    score,
		Keywords: matched,
	}
}
