// Package heuristic implements the offline rule-based classifier. It is the
// terminal stage of the fallback chain: pure string processing, no I/O, and
// no error path. Score thresholds and weights are empirically chosen
// constants, kept as named values so they can be tuned in one place.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/scamwatch/threatcheck/internal/domain/analysis"
)

// Score thresholds for mapping the accumulated score onto a threat level.
// Bands are evaluated top-down; the first match wins.
const (
	DangerousScore  = 10
	SuspiciousScore = 5
	WatchScore      = 2
)

// Bonus weights rewarding keyword combinations over isolated hits.
const (
	TyposquatWeight   = 10
	PairBonus         = 2
	MoneyComboBonus   = 3
	BrandContextBonus = 2
)

// Verdict is the partial result produced by the classifier. The normalizer
// wraps it into a canonical analysis.Result.
type Verdict struct {
	Score      int
	Level      analysis.ThreatLevel
	Confidence int
	Indicators []string
	Threats    []string
	Keywords   []string
	Typosquat  bool
}

// Classifier scores text and URLs against a fixed Ruleset. Safe for
// concurrent use; the ruleset is read-only after construction.
type Classifier struct {
	rules *Ruleset
}

// NewClassifier builds a classifier around the given ruleset. A nil ruleset
// selects the default tables.
func NewClassifier(rules *Ruleset) *Classifier {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Classifier{rules: rules}
}

// Classify scores the content and derives level and confidence. It never
// fails and performs no I/O.
func (c *Classifier) Classify(input analysis.InputType, content string) Verdict {
	if input == analysis.InputURL {
		return c.classifyURL(content)
	}
	return c.classifyText(content)
}

func (c *Classifier) classifyText(content string) Verdict {
	lower := strings.ToLower(content)
	var v Verdict

	for _, cat := range c.rules.Categories {
		var hits []string
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}
		v.Score += len(hits) * cat.Weight
		v.Keywords = append(v.Keywords, hits...)
		v.Threats = appendUnique(v.Threats, cat.Tag)
		v.Indicators = append(v.Indicators,
			fmt.Sprintf("%s language detected (%d trigger terms)", cat.Label, len(hits)))
	}

	for _, p := range c.rules.Typosquats {
		if hit := p.findSpoof(lower); hit != "" {
			v.Score += TyposquatWeight
			v.Typosquat = true
			v.Threats = appendUnique(v.Threats, analysis.ThreatTyposquatting)
			v.Indicators = append(v.Indicators,
				fmt.Sprintf("Look-alike spelling of %q: %q", p.Brand, hit))
		}
	}

	for _, d := range c.rules.Structural {
		subject := lower
		if d.CaseSensitive {
			subject = content
		}
		if len(d.Pattern.FindAllStringIndex(subject, -1)) >= d.MinCount {
			v.Score += d.Weight
			v.Indicators = append(v.Indicators, d.Indicator)
		}
	}

	v.Score += c.contextBonus(lower, &v)

	v.Level, v.Confidence = LevelForScore(v.Score, v.Typosquat)
	return v
}

// contextBonus rewards co-occurring terms: specific keyword pairs, three or
// more distinct money-related terms, and a brand mention alongside a dense
// keyword field. Combinations carry more signal than isolated words.
func (c *Classifier) contextBonus(lower string, v *Verdict) int {
	bonus := 0
	for _, pair := range c.rules.Pairs {
		if strings.Contains(lower, pair[0]) && strings.Contains(lower, pair[1]) {
			bonus += PairBonus
			v.Indicators = append(v.Indicators,
				fmt.Sprintf("Pressure combination: %q together with %q", pair[0], pair[1]))
		}
	}

	money := 0
	for _, term := range c.rules.MoneyTerms {
		if strings.Contains(lower, term) {
			money++
		}
	}
	if money >= 3 {
		bonus += MoneyComboBonus
		v.Indicators = append(v.Indicators,
			fmt.Sprintf("Multiple money-related terms (%d distinct)", money))
	}

	if len(v.Keywords) >= 5 {
		for _, p := range c.rules.Typosquats {
			if strings.Contains(lower, p.Brand) {
				bonus += BrandContextBonus
				v.Indicators = append(v.Indicators,
					fmt.Sprintf("Brand %q mentioned amid scam vocabulary", p.Brand))
				break
			}
		}
	}
	return bonus
}

// LevelForScore maps an accumulated score onto a threat level and a
// consistent confidence value. A typosquatting match forces dangerous
// regardless of the keyword sum. Higher score never yields a lower level.
func LevelForScore(score int, typosquat bool) (analysis.ThreatLevel, int) {
	switch {
	case typosquat || score >= DangerousScore:
		return analysis.LevelDangerous, min(85+score/3, 99)
	case score >= SuspiciousScore:
		return analysis.LevelSuspicious, min(70+score/2, 84)
	case score >= WatchScore:
		return analysis.LevelSuspicious, min(60+score*2, 69)
	default:
		return analysis.LevelSafe, max(90-score*5, 70)
	}
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
