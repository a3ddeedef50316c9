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

// phishingKeywords are phrases that commonly appear in phishing mail,
// grouped by family: urgency, account verification, financial lures, and
// government impersonation. Matched case-insensitively against
// subject + body; scanned in order so matched-keyword lists are stable.
var phishingKeywords = []string{
	// Urgency
	"urgent",
	"immediate action",
	"act now",
	"expires today",
	"final notice",
	"last warning",
	"within 24 hours",
	"account suspended",
	"account locked",
	"unusual activity",
	"security alert",

	// Account verification
	"verify",
	"verify your account",
	"confirm your identity",
	"account",
	"update your password",
	"reset your password",
	"update your payment",
	"billing information",
	"reactivate",
	"validate your account",
	"click here",
	"sign in to continue",

	// Financial lures
	"you have won",
	"claim your prize",
	"congratulations",
	"free gift",
	"lottery",
	"inheritance",
	"wire transfer",
	"unclaimed funds",
	"processing fee",
	"refund",

	// Government / authority impersonation
	"irs",
	"tax refund",
	"social security",
	"legal action",
	"arrest warrant",
}

// suspiciousTLDs are top-level domains disproportionately used for
// throwaway phishing hosts.
var suspiciousTLDs = []string{
	".tk",
	".ml",
	".ga",
	".cf",
	".gq",
	".xyz",
	".top",
	".click",
	".link",
	".work",
	".loan",
	".zip",
}

// spoofedBrands are commonly impersonated brand tokens. Used both for the
// typosquat URL heuristic (brand token adjacent to a digit) and for the
// sender domain-mismatch check, where the legitimate domains are
// <brand>.com and <brand>.org. Scanned in order, first match wins.
var spoofedBrands = []string{
	"paypal",
	"amazon",
	"apple",
	"microsoft",
	"google",
	"netflix",
	"facebook",
	"instagram",
	"wellsfargo",
	"chase",
	"bankofamerica",
	"dhl",
	"fedex",
	"ups",
}
