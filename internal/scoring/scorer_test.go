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
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// TestAnalyze_HighRiskPhishing verifies the canonical phishing example: IP
// URL + urgency keywords + brand-spoofing sender must score HIGH.
func TestAnalyze_HighRiskPhishing(t *testing.T) {
	s := NewScorer()
	msg := models.CanonicalMessage{
		Subject: "Urgent: verify your account",
		Sender:  "support@paypal-secure1.com",
		URLs:    []string{"http://192.168.1.5/login"},
	}

	got := s.Analyze(msg)

	if got.Level != models.RiskHigh {
		t.Fatalf("expected HIGH, got %s (score %.3f)", got.Level, got.Score)
	}
	if got.Score < 0.7 {
		t.Errorf("expected score >= 0.7, got %.3f", got.Score)
	}

	var urlFlag, keywordFlag bool
	for _, f := range got.Flags {
		if strings.Contains(f, "suspicious URL") {
			urlFlag = true
		}
		if strings.Contains(f, "phishing keywords") {
			keywordFlag = true
		}
	}
	if !urlFlag {
		t.Errorf("expected a suspicious-URL flag, got %v", got.Flags)
	}
	if !keywordFlag {
		t.Errorf("expected a keyword flag, got %v", got.Flags)
	}
}

// TestAnalyze_BenignNewsletter verifies a plain newsletter scores LOW with
// no flags.
func TestAnalyze_BenignNewsletter(t *testing.T) {
	s := NewScorer()
	msg := models.CanonicalMessage{
		Subject:  "Weekly newsletter",
		Sender:   "news@techsite.com",
		BodyText: "Here is this week's roundup",
	}

	got := s.Analyze(msg)

	if got.Level != models.RiskLow {
		t.Fatalf("expected LOW, got %s (score %.3f)", got.Level, got.Score)
	}
	if got.Score >= 0.4 {
		t.Errorf("expected score < 0.4, got %.3f", got.Score)
	}
	if len(got.Flags) != 0 {
		t.Errorf("expected no flags, got %v", got.Flags)
	}
}

// TestAnalyze_Deterministic verifies repeated calls with identical input
// produce identical assessments, including flags and sub-scores.
func TestAnalyze_Deterministic(t *testing.T) {
	s := NewScorer()
	msg := models.CanonicalMessage{
		Subject:  "Urgent security alert",
		Sender:   "x9f3k2m8q1@mail7.example.tk",
		BodyText: "Click here to verify your account before it expires today",
		URLs:     []string{"http://paypal1.example.tk/login-secure", "https://ok.example.com"},
	}

	first := s.Analyze(msg)
	for i := 0; i < 10; i++ {
		if got := s.Analyze(msg); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differs:\nfirst: %+v\ngot:   %+v", i, first, got)
		}
	}
}

// TestAnalyze_WeightingLaw verifies the combined score is exactly the
// weighted sum of the sub-scores, clamped to 0..1.
func TestAnalyze_WeightingLaw(t *testing.T) {
	s := NewScorer()
	msgs := []models.CanonicalMessage{
		{},
		{Subject: "urgent", Sender: "a@b.com"},
		{Subject: "Verify your account now", Sender: "support@paypal.example.net", URLs: []string{"http://10.0.0.1/x"}},
		{BodyText: "you have won the lottery, claim your prize, congratulations", Sender: "q0w9e8r7t6y5@win2.example.xyz"},
	}

	for i, msg := range msgs {
		got := s.Analyze(msg)
		d := got.Details
		want := (d.URLAnalysis.Score*0.35 + d.KeywordAnalysis.Score*0.35 + d.SenderAnalysis.Score*0.30) / 100
		if want < 0 {
			want = 0
		}
		if want > 1 {
			want = 1
		}
		if math.Abs(got.Score-want) > 1e-12 {
			t.Errorf("msg %d: score %v, want %v", i, got.Score, want)
		}

		wantLevel := models.RiskLow
		if got.Score >= 0.7 {
			wantLevel = models.RiskHigh
		} else if got.Score >= 0.4 {
			wantLevel = models.RiskMedium
		}
		if got.Level != wantLevel {
			t.Errorf("msg %d: level %s, want %s for score %v", i, got.Level, wantLevel, got.Score)
		}
	}
}

// TestAnalyze_EmptyMessage verifies the scorer is total: a zero-value
// message scores 0 / LOW without panicking.
func TestAnalyze_EmptyMessage(t *testing.T) {
	got := NewScorer().Analyze(models.CanonicalMessage{})
	if got.Score != 0 || got.Level != models.RiskLow {
		t.Errorf("empty message: got score %v level %s", got.Score, got.Level)
	}
	if len(got.Flags) != 0 {
		t.Errorf("empty message: expected no flags, got %v", got.Flags)
	}
}

// TestIsSuspiciousURL exercises each per-URL heuristic independently.
func TestIsSuspiciousURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"ipv4 host", "http://192.168.1.5/path", true},
		{"suspicious tld", "http://promo.example.tk/offer", true},
		{"brand with digit suffix", "https://paypal1.example.net/verify", true},
		{"brand with digit prefix", "https://0amazon.example.net/", true},
		{"login plus secure", "https://example.com/login/secure/session", true},
		{"too long", "https://example.com/" + strings.Repeat("a", 200), true},
		{"too many dots", "https://a.b.c.d.e.example.com/x", true},
		{"clean", "https://example.com/about", false},
		{"brand on own domain", "https://paypal.com/activity", false},
		{"login without secure", "https://example.com/login", false},
	}

	for _, tc := range cases {
		if got := isSuspiciousURL(tc.url); got != tc.want {
			t.Errorf("%s: isSuspiciousURL(%q) = %v, want %v", tc.name, tc.url, got, tc.want)
		}
	}
}

// TestAnalyzeURLs_Score verifies the suspicious ratio scaling and the
// zero-URL case.
func TestAnalyzeURLs_Score(t *testing.T) {
	if got := analyzeURLs(nil); got.Score != 0 {
		t.Errorf("no URLs: score %v, want 0", got.Score)
	}

	got := analyzeURLs([]string{
		"http://192.168.1.5/a",
		"https://example.com/ok",
	})
	if got.Score != 50 {
		t.Errorf("1 of 2 suspicious: score %v, want 50", got.Score)
	}
	if got.TotalURLs != 2 || len(got.SuspiciousURLs) != 1 {
		t.Errorf("unexpected analysis: %+v", got)
	}
}

// TestAnalyzeKeywords verifies distinct-match counting, the 100 cap and
// first-occurrence ordering.
func TestAnalyzeKeywords(t *testing.T) {
	got := analyzeKeywords("Lottery winner", "congratulations, you have won the lottery")
	if got.Score != 30 {
		t.Errorf("score %v, want 30", got.Score)
	}
	// "lottery" appears first in subject+body content.
	if len(got.Keywords) != 3 || got.Keywords[0] != "lottery" {
		t.Errorf("keywords %v, want lottery first of 3", got.Keywords)
	}

	// A repeated keyword counts once.
	rep := analyzeKeywords("urgent urgent urgent", "urgent")
	if rep.Score != 10 || len(rep.Keywords) != 1 {
		t.Errorf("repeated keyword: score %v keywords %v", rep.Score, rep.Keywords)
	}

	// Cap at 100 regardless of match count.
	many := analyzeKeywords("", strings.Join(phishingKeywords, " "))
	if many.Score != 100 {
		t.Errorf("all keywords: score %v, want 100", many.Score)
	}
}

// TestAnalyzeSender exercises the three sender checks and the suspicious
// threshold.
func TestAnalyzeSender(t *testing.T) {
	cases := []struct {
		name           string
		sender         string
		wantScore      float64
		wantSuspicious bool
	}{
		{"empty", "", 0, false},
		{"normal", "alice@example.com", 0, false},
		{"brand mismatch", "support@paypal-alerts.net", 70, true},
		{"brand on real com domain", "service@paypal.com", 0, false},
		{"brand on real org domain", "service@paypal.org", 0, false},
		{"random local part", "x9f3k2m8q1@example.com", 40, true},
		{"digit in first domain label", "info@mail7.example.com", 60, true},
		{"short local part", "bob@example.com", 0, false},
	}

	for _, tc := range cases {
		got := analyzeSender(tc.sender)
		if got.Score != tc.wantScore {
			t.Errorf("%s: score %v, want %v", tc.name, got.Score, tc.wantScore)
		}
		if got.IsSuspicious != tc.wantSuspicious {
			t.Errorf("%s: suspicious %v, want %v", tc.name, got.IsSuspicious, tc.wantSuspicious)
		}
	}

	// Brand mismatch outranks the weaker checks even when they also fire.
	got := analyzeSender("paypal9k2m8q1xx@secure9.example.net")
	if got.Score != 70 {
		t.Errorf("combined checks: score %v, want 70", got.Score)
	}
	if got.Reason == "" {
		t.Error("combined checks: expected a mismatch reason")
	}
}

// TestBuildFlags_KeywordCap verifies the keyword flag lists at most five
// keywords and the whole list stays within the cap.
func TestBuildFlags_KeywordCap(t *testing.T) {
	got := NewScorer().Analyze(models.CanonicalMessage{
		Subject:  "urgent final notice act now",
		Sender:   "support@amazon-billing7.net",
		BodyText: "verify your account, claim your prize, you have won, click here, wire transfer",
		URLs:     []string{"http://10.1.1.1/login-secure"},
	})

	if len(got.Flags) > models.MaxFlags {
		t.Fatalf("flags exceed cap: %v", got.Flags)
	}
	for _, f := range got.Flags {
		if strings.HasPrefix(f, "phishing keywords: ") {
			listed := strings.Split(strings.TrimPrefix(f, "phishing keywords: "), ", ")
			if len(listed) > 5 {
				t.Errorf("keyword flag lists %d keywords: %q", len(listed), f)
			}
		}
	}
}
