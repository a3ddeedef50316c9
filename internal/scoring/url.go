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
	"net"
	"net/url"
	"strings"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

const maxURLLength = 200

// analyzeURLs scores a message's URL list. The sub-score is the fraction of
// suspicious URLs, scaled to 0..100; a message with no URLs scores 0.
func analyzeURLs(urls []string) models.URLAnalysis {
	result := models.URLAnalysis{
		TotalURLs:      len(urls),
		SuspiciousURLs: []string{},
	}
	if len(urls) == 0 {
		return result
	}

	for _, u := range urls {
		if isSuspiciousURL(u) {
			result.SuspiciousURLs = append(result.SuspiciousURLs, u)
		}
	}

	ratio := float64(len(result.SuspiciousURLs)) / float64(len(urls))
	if ratio > 1 {
		ratio = 1
	}
	result.Score = ratio * 100
	return result
}

// isSuspiciousURL applies the per-URL heuristics. Any single hit marks the
// URL suspicious.
func isSuspiciousURL(raw string) bool {
	lower := strings.ToLower(raw)

	// Raw IPv4 host
	if ip := net.ParseIP(hostOf(lower)); ip != nil && ip.To4() != nil {
		return true
	}

	// Throwaway TLD
	host := hostOf(lower)
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}

	// Crude typosquat check: a known brand token touching a digit
	// (paypal1, 0amazon, ...)
	if brandAdjacentToDigit(lower) {
		return true
	}

	// Credential-harvesting path pattern
	if strings.Contains(lower, "login") && strings.Contains(lower, "secure") {
		return true
	}

	// Obfuscation via length or subdomain stuffing
	if len(raw) > maxURLLength {
		return true
	}
	if strings.Count(raw, ".") > 4 {
		return true
	}

	return false
}

// hostOf extracts the hostname (no port) from a URL, falling back to a
// manual slice when parsing fails.
func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}

	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	for _, sep := range []string{"/", "?", "#"} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i+1:], "]") {
		s = s[:i]
	}
	return s
}

// brandAdjacentToDigit reports whether any spoofed brand token appears with
// a digit character immediately before or after it.
func brandAdjacentToDigit(lower string) bool {
	for _, brand := range spoofedBrands {
		for from := 0; ; {
			i := strings.Index(lower[from:], brand)
			if i < 0 {
				break
			}
			i += from
			end := i + len(brand)
			if i > 0 && isDigit(lower[i-1]) {
				return true
			}
			if end < len(lower) && isDigit(lower[end]) {
				return true
			}
			from = end
		}
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
