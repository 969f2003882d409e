// Package explain turns a finished verdict into a human-readable rationale
// and an ordered list of recommended actions. It is pure and total: when no
// rich template applies it falls back to a minimal generic narrative.
package explain

import (
	"fmt"
	"strings"

	"github.com/scamwatch/threatcheck/internal/domain/analysis"
)

// scamCategory is one entry of the secondary lookup table. Ties between
// categories are broken by declaration order: first wins.
type scamCategory struct {
	name     string
	headline string
	terms    []string
}

var categories = []scamCategory{
	{
		name:     "financial",
		headline: "This looks like a financial scam trying to move your money.",
		terms: []string{
			"wire", "bank", "bitcoin", "crypto", "gift card", "transfer",
			"payment", "refund", "fee", "invoice", "cash", "money",
		},
	},
	{
		name:     "urgency",
		headline: "This message uses urgency and pressure tactics common in scams.",
		terms: []string{
			"urgent", "immediately", "act now", "expires", "deadline",
			"final notice", "last chance", "within 24 hours",
		},
	},
	{
		name:     "prize",
		headline: "This looks like a prize or lottery scam.",
		terms: []string{
			"winner", "won", "lottery", "prize", "jackpot", "congratulations",
			"claim", "sweepstakes", "reward",
		},
	},
	{
		name:     "phishing",
		headline: "This looks like a phishing attempt to steal your login details.",
		terms: []string{
			"verify", "confirm", "suspended", "login", "signin", "password",
			"account", "security alert", "secure", "update",
		},
	},
	{
		name:     "malware",
		headline: "This looks like a tech-support or malware scam.",
		terms: []string{
			"virus", "infected", "tech support", "remote access", "teamviewer",
			"anydesk", "malware", "install",
		},
	},
	{
		name:     "identity-theft",
		headline: "This looks like an attempt to harvest personal information.",
		terms: []string{
			"social security", "ssn", "passport", "date of birth", "cvv",
			"pin", "driver's license", "credit card",
		},
	},
}

var levelHeadlines = map[analysis.ThreatLevel]string{
	analysis.LevelDangerous:  "Dangerous content detected",
	analysis.LevelSuspicious: "Suspicious content detected",
	analysis.LevelSafe:       "No significant threat detected",
}

// Generate produces the summary narrative and the recommendation list for a
// verdict. Never fails; with no matching category it emits the generic
// template built from level and confidence only.
func Generate(res *analysis.Result) (string, []string) {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s, confidence %d%%).",
		levelHeadlines[res.ThreatLevel], res.ThreatLevel, res.Confidence)

	if cat := dominantCategory(res.Keywords); cat != nil {
		b.WriteString(" ")
		b.WriteString(cat.headline)
	}

	if len(res.Indicators) > 0 {
		b.WriteString("\n\nWhat we found:")
		for _, ind := range res.Indicators {
			b.WriteString("\n- ")
			b.WriteString(ind)
		}
	}

	return b.String(), recommendations(res.ThreatLevel)
}

// dominantCategory picks the category with the most keyword overlaps.
// Declaration order wins ties; nil when nothing overlaps.
func dominantCategory(keywords []string) *scamCategory {
	best := -1
	var bestCat *scamCategory
	for i := range categories {
		cat := &categories[i]
		overlap := 0
		for _, kw := range keywords {
			for _, term := range cat.terms {
				if strings.Contains(kw, term) {
					overlap++
					break
				}
			}
		}
		if overlap > best && overlap > 0 {
			best = overlap
			bestCat = cat
		}
	}
	return bestCat
}

func recommendations(level analysis.ThreatLevel) []string {
	switch level {
	case analysis.LevelDangerous:
		return []string{
			"Do not reply, click any links, or open any attachments.",
			"Delete the message and block the sender.",
			"Report it to your local anti-fraud authority.",
			"If you already responded, contact your bank and change your passwords now.",
		}
	case analysis.LevelSuspicious:
		return []string{
			"Do not act on the message until you have verified it.",
			"Contact the supposed sender through an official channel you look up yourself.",
			"Never share passwords, codes, or payment details in reply.",
		}
	default:
		return []string{
			"No action needed, but stay alert for unexpected requests.",
			"When in doubt, verify requests through a second channel.",
		}
	}
}
