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
	"fmt"
	"regexp"
	"strings"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// randomLocalPart matches a long, random-looking local part: 10 or more
// lowercase alphanumerics straight through to the @.
var randomLocalPart = regexp.MustCompile(`^[a-z0-9]{10,}@`)

// analyzeSender scores the sender address. Three independent checks:
//
//   - brand token present but the domain is not the brand's own .com/.org
//     (first matching brand wins, scanning stops): 70
//   - long random-looking local part: at least 40
//   - digit in the domain's first label: at least 60
//
// IsSuspicious is set when the final score exceeds 30.
func analyzeSender(sender string) models.SenderAnalysis {
	addr := strings.ToLower(strings.TrimSpace(sender))
	result := models.SenderAnalysis{}
	if addr == "" {
		return result
	}

	domain := ""
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		domain = addr[at+1:]
	}

	for _, brand := range spoofedBrands {
		if !strings.Contains(addr, brand) {
			continue
		}
		if domain != brand+".com" && domain != brand+".org" {
			result.Score = 70
			result.Reason = fmt.Sprintf("mentions %q but sent from %q", brand, domain)
		}
		break
	}

	if randomLocalPart.MatchString(addr) && result.Score < 40 {
		result.Score = 40
	}

	if firstLabelHasDigit(domain) && result.Score < 60 {
		result.Score = 60
	}

	result.IsSuspicious = result.Score > 30
	return result
}

// firstLabelHasDigit reports whether the leftmost label of the domain
// contains a digit ("secure1.example.com" -> true).
func firstLabelHasDigit(domain string) bool {
	label := domain
	if i := strings.Index(domain, "."); i >= 0 {
		label = domain[:i]
	}
	return strings.ContainsAny(label, "0123456789")
}
