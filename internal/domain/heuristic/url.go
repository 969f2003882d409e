package heuristic

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"

	"github.com/scamwatch/threatcheck/internal/domain/analysis"
)

// AllowlistConfidence is assigned when a URL short-circuits via the
// known-safe domain list.
const AllowlistConfidence = 95

// classifyURL scores a URL against the URL-specific tables. The allowlist is
// checked first and wins outright; everything else accumulates.
func (c *Classifier) classifyURL(raw string) Verdict {
	lower := strings.ToLower(strings.TrimSpace(raw))

	for _, re := range c.rules.allowlist {
		if re.MatchString(lower) {
			return Verdict{
				Level:      analysis.LevelSafe,
				Confidence: AllowlistConfidence,
				Indicators: []string{"Domain is on the known-safe allowlist"},
			}
		}
	}

	u, err := url.Parse(lower)
	if err != nil || u.Hostname() == "" {
		// Not parseable as a URL; score it as plain text instead of failing.
		return c.classifyText(raw)
	}
	host := u.Hostname()
	pathQuery := u.Path
	if u.RawQuery != "" {
		pathQuery += "?" + u.RawQuery
	}

	var v Verdict

	var phrases []string
	for _, phrase := range c.rules.PhishingPhrases {
		if strings.Contains(host, phrase) {
			phrases = append(phrases, phrase)
		}
	}
	if len(phrases) > 0 {
		v.Score += 2 * len(phrases)
		v.Keywords = append(v.Keywords, phrases...)
		v.Threats = appendUnique(v.Threats, analysis.ThreatPhishing)
		v.Indicators = append(v.Indicators,
			fmt.Sprintf("Hostname contains phishing bait terms: %s", strings.Join(phrases, ", ")))
	}

	for _, p := range c.rules.Typosquats {
		if hit := p.findSpoof(host); hit != "" {
			v.Score += TyposquatWeight
			v.Typosquat = true
			v.Threats = appendUnique(v.Threats, analysis.ThreatTyposquatting)
			v.Indicators = append(v.Indicators,
				fmt.Sprintf("Domain imitates %q: %q", p.Brand, hit))
		}
	}

	for _, tld := range c.rules.SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			v.Score += 3
			v.Threats = appendUnique(v.Threats, analysis.ThreatSuspiciousTLD)
			v.Indicators = append(v.Indicators,
				fmt.Sprintf("Top-level domain %q is frequently abused", tld))
			break
		}
	}

	for _, short := range c.rules.Shorteners {
		if host == short {
			v.Score += 2
			v.Threats = appendUnique(v.Threats, analysis.ThreatURLShortener)
			v.Indicators = append(v.Indicators,
				"URL shortener hides the real destination")
			break
		}
	}

	if net.ParseIP(host) != nil {
		v.Score += 4
		v.Threats = appendUnique(v.Threats, analysis.ThreatRawIPHost)
		v.Indicators = append(v.Indicators, "Host is a raw IP address instead of a domain")
	}

	for _, p := range c.rules.HarvestingPaths {
		if strings.Contains(pathQuery, p) {
			v.Score += 3
			v.Threats = appendUnique(v.Threats, analysis.ThreatHarvestingPath)
			v.Indicators = append(v.Indicators,
				fmt.Sprintf("Path suggests credential or data harvesting (%q)", p))
			break
		}
	}

	if hasHomograph(host) {
		v.Score += 4
		v.Threats = appendUnique(v.Threats, analysis.ThreatHomograph)
		v.Indicators = append(v.Indicators,
			"Hostname mixes scripts or uses punycode (possible homograph attack)")
	}

	if labels := strings.Split(host, "."); len(labels) > 4 {
		v.Score += 2
		v.Threats = appendUnique(v.Threats, analysis.ThreatManySubdomains)
		v.Indicators = append(v.Indicators,
			fmt.Sprintf("Unusually deep subdomain nesting (%d labels)", len(labels)))
	}

	if port := u.Port(); port != "" && port != "80" && port != "443" {
		v.Score += 2
		v.Threats = appendUnique(v.Threats, analysis.ThreatOddPort)
		v.Indicators = append(v.Indicators,
			fmt.Sprintf("Non-standard port %s", port))
	}

	if len(raw) > 100 {
		v.Score++
		v.Threats = appendUnique(v.Threats, analysis.ThreatLongURL)
		v.Indicators = append(v.Indicators, "Unusually long URL")
	}

	v.Level, v.Confidence = LevelForScore(v.Score, v.Typosquat)
	return v
}

// hasHomograph reports punycode labels or non-ASCII letters in the host.
func hasHomograph(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	for _, r := range host {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}
