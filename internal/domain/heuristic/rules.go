package heuristic

import (
	"regexp"

	"github.com/scamwatch/threatcheck/internal/domain/analysis"
)

// Category is one weighted keyword group. Score contribution is
// matched-keyword-count times Weight.
type Category struct {
	Label    string
	Tag      string
	Weight   int
	Keywords []string
}

// TyposquatPattern matches leet-style respellings of a brand name. The
// pattern deliberately also matches the legitimate spelling; findSpoof only
// reports substrings that differ from the brand itself.
type TyposquatPattern struct {
	Brand   string
	Pattern *regexp.Regexp
}

func (p TyposquatPattern) findSpoof(lower string) string {
	for _, m := range p.Pattern.FindAllString(lower, -1) {
		if m != p.Brand {
			return m
		}
	}
	return ""
}

// StructuralDetector flags a structural property of the content (phone
// numbers, embedded URLs, shouting, ...). Fires once when the pattern occurs
// at least MinCount times.
type StructuralDetector struct {
	Indicator     string
	Pattern       *regexp.Regexp
	MinCount      int
	Weight        int
	CaseSensitive bool
}

// Ruleset bundles every table the classifier consults. Construct once and
// share; all fields are read-only after construction.
type Ruleset struct {
	Categories []Category
	Typosquats []TyposquatPattern
	Structural []StructuralDetector
	Pairs      [][2]string
	MoneyTerms []string

	PhishingPhrases []string
	SuspiciousTLDs  []string
	Shorteners      []string
	HarvestingPaths []string
	allowlist       []*regexp.Regexp
}

// DefaultRuleset returns the built-in tables. Weights and membership are
// tunable constants, not learned parameters.
func DefaultRuleset() *Ruleset {
	rs := &Ruleset{
		Categories: []Category{
			{
				Label: "Urgency", Tag: analysis.ThreatUrgency, Weight: 2,
				Keywords: []string{
					"urgent", "immediately", "act now", "expires", "deadline",
					"final notice", "last chance", "right away", "within 24 hours",
					"time sensitive", "don't delay",
				},
			},
			{
				Label: "Financial scam", Tag: analysis.ThreatFinancialScam, Weight: 3,
				Keywords: []string{
					"wire transfer", "bank account", "routing number", "bitcoin",
					"cryptocurrency", "gift card", "western union", "moneygram",
					"refund", "unpaid invoice", "overdue", "tax debt",
					"transfer funds", "processing fee",
				},
			},
			{
				Label: "Prize or lottery", Tag: analysis.ThreatPrizeScam, Weight: 3,
				Keywords: []string{
					"congratulations", "you have won", "winner", "lottery", "prize",
					"jackpot", "claim your", "sweepstakes", "lucky draw", "reward waiting",
				},
			},
			{
				Label: "Phishing", Tag: analysis.ThreatPhishing, Weight: 3,
				Keywords: []string{
					"verify your account", "confirm your identity", "suspended",
					"unusual activity", "security alert", "click the link",
					"update your information", "verify now", "confirm now",
					"re-activate", "account locked", "sign in to continue",
				},
			},
			{
				Label: "Tech-support or malware", Tag: analysis.ThreatTechSupport, Weight: 3,
				Keywords: []string{
					"your computer has been infected", "virus detected",
					"call microsoft", "tech support", "remote access",
					"teamviewer", "anydesk", "install this software",
					"security warning", "malware detected",
				},
			},
			{
				Label: "Personal-information harvesting", Tag: analysis.ThreatInfoHarvesting, Weight: 2,
				Keywords: []string{
					"social security", "ssn", "date of birth", "mother's maiden name",
					"passport number", "driver's license", "credit card number",
					"cvv", "pin code", "security question",
				},
			},
			{
				Label: "Romance scam", Tag: analysis.ThreatRomanceScam, Weight: 2,
				Keywords: []string{
					"my love", "soulmate", "overseas", "military deployment",
					"customs fee", "plane ticket", "trust me", "destiny",
					"widowed", "send me",
				},
			},
		},
		Typosquats: []TyposquatPattern{
			{Brand: "paypal", Pattern: regexp.MustCompile(`p[a4@]yp[a4@][l1i!]`)},
			{Brand: "google", Pattern: regexp.MustCompile(`g[o0][o0]gl[e3]`)},
			{Brand: "amazon", Pattern: regexp.MustCompile(`[a4]m[a4]z[o0]n`)},
			{Brand: "microsoft", Pattern: regexp.MustCompile(`m[i1!]cr[o0]s[o0]ft`)},
			{Brand: "apple", Pattern: regexp.MustCompile(`[a4@]ppl[e3]`)},
			{Brand: "facebook", Pattern: regexp.MustCompile(`f[a4]c[e3]b[o0][o0]k`)},
			{Brand: "netflix", Pattern: regexp.MustCompile(`n[e3]tfl[i1!]x`)},
			{Brand: "whatsapp", Pattern: regexp.MustCompile(`wh[a4]ts[a4]pp`)},
			{Brand: "instagram", Pattern: regexp.MustCompile(`[i1!]nst[a4]gr[a4]m`)},
		},
		Structural: []StructuralDetector{
			{
				Indicator: "Contains a phone number",
				Pattern:   regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}|\+\d{1,3}[-\s]?\d{6,12}`),
				MinCount:  1, Weight: 1,
			},
			{
				Indicator: "Contains an embedded link",
				Pattern:   regexp.MustCompile(`https?://\S+`),
				MinCount:  1, Weight: 1,
			},
			{
				Indicator: "Mentions specific money amounts",
				Pattern:   regexp.MustCompile(`[$€£]\s?\d[\d,.]*|\d[\d,.]*\s?(usd|eur|gbp|dollars?)`),
				MinCount:  1, Weight: 1,
			},
			{
				Indicator:     "Excessive capitalisation (shouting)",
				Pattern:       regexp.MustCompile(`\b[A-Z]{4,}\b`),
				MinCount:      2, Weight: 1,
				CaseSensitive: true,
			},
			{
				Indicator: "Excessive punctuation",
				Pattern:   regexp.MustCompile(`[!?]{3,}`),
				MinCount:  1, Weight: 1,
			},
			{
				Indicator: "Free-money phrasing",
				Pattern:   regexp.MustCompile(`free\s+(money|cash|gift|iphone|vacation)|risk[-\s]free|100%\s+free|no\s+hidden\s+cost`),
				MinCount:  1, Weight: 2,
			},
		},
		Pairs: [][2]string{
			{"urgent", "verify"},
			{"suspended", "account"},
			{"password", "expire"},
			{"winner", "claim"},
		},
		MoneyTerms: []string{
			"money", "cash", "dollar", "$", "payment", "bank", "transfer",
			"fund", "deposit", "wire", "bitcoin", "crypto",
		},

		PhishingPhrases: []string{
			"verify", "secure", "login", "signin", "account", "update",
			"confirm", "banking", "password", "wallet", "webscr", "support",
		},
		SuspiciousTLDs: []string{
			".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".click",
			".loan", ".work", ".zip", ".mov", ".country", ".stream",
		},
		Shorteners: []string{
			"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd",
			"buff.ly", "cutt.ly", "rb.gy", "shorturl.at", "tiny.cc",
		},
		HarvestingPaths: []string{
			"login", "signin", "verify", "password", "account/update",
			"secure", "webscr", "confirm", "wallet",
		},
	}

	for _, root := range knownSafeDomains {
		rs.allowlist = append(rs.allowlist, allowRegexp(root))
	}
	return rs
}

// knownSafeDomains short-circuit to safe with confidence 95. Matching is an
// anchored scheme + optional-www + exact root domain + boundary check, so
// subdomains and look-alike paths (evil.com/google.com) never qualify.
var knownSafeDomains = []string{
	"google.com", "youtube.com", "facebook.com", "amazon.com",
	"wikipedia.org", "twitter.com", "instagram.com", "linkedin.com",
	"microsoft.com", "apple.com", "netflix.com", "paypal.com",
	"github.com", "reddit.com", "ebay.com",
}

func allowRegexp(root string) *regexp.Regexp {
	return regexp.MustCompile(`^https?://(www\.)?` + regexp.QuoteMeta(root) + `([/:?#]|$)`)
}
