package analysis

import (
	"fmt"
	"strings"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/heuristic"
	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

// Provider verdict-score bands (provider scale is 0-100). Chosen so the
// resulting confidence always lands inside the level's band.
const (
	deepScanDangerousScore  = 70
	deepScanSuspiciousScore = 30
)

// NormalizeDeepScan maps a deep-scan report into the canonical result.
// Missing optional fields are simply omitted from the sub-records.
func NormalizeDeepScan(r *providers.DeepScanReport) *domain.Result {
	score := r.Verdict.Score
	var level domain.ThreatLevel
	var conf int
	switch {
	case r.Verdict.Malicious || score >= deepScanDangerousScore:
		level = domain.LevelDangerous
		conf = max(min(85+(score-deepScanDangerousScore)/2, 99), 85)
	case score >= deepScanSuspiciousScore:
		level = domain.LevelSuspicious
		conf = min(60+(score-deepScanSuspiciousScore), 84)
	default:
		level = domain.LevelSafe
		conf = max(95-score, 70)
	}

	res := &domain.Result{
		InputType:   domain.InputURL,
		ThreatLevel: level,
		Confidence:  conf,
		ThreatScore: score,
		Source:      domain.SourceDeepScan,
	}

	if r.Verdict.Malicious {
		res.Threats = append(res.Threats, domain.ThreatKnownMalicious)
		res.Indicators = append(res.Indicators, "Deep-scan provider flagged the page as malicious")
	}
	for _, cat := range r.Verdict.Categories {
		res.Threats = append(res.Threats, threatTagForCategory(cat))
		res.Indicators = append(res.Indicators,
			fmt.Sprintf("Provider categorised the page as %s", cat))
	}
	for _, brand := range r.Verdict.Brands {
		res.Indicators = append(res.Indicators,
			fmt.Sprintf("Page impersonates brand %q", brand))
	}
	if r.Stats.Malicious > 0 {
		res.Indicators = append(res.Indicators,
			fmt.Sprintf("%d of %d observed requests were flagged malicious",
				r.Stats.Malicious, r.Stats.Requests))
	}

	if r.Page != (providers.DeepScanPage{}) {
		res.Domain = &domain.DomainInfo{
			Name:    r.Page.Domain,
			IP:      r.Page.IP,
			ASN:     r.Page.ASN,
			Country: r.Page.Country,
			Server:  r.Page.Server,
		}
		res.Page = &domain.PageInfo{
			StatusCode: r.Page.Status,
			MimeType:   r.Page.MimeType,
		}
	}
	if r.Stats.Requests > 0 {
		res.Network = &domain.NetworkInfo{RequestCount: r.Stats.Requests}
	}
	for _, tech := range r.Technologies {
		res.Technologies = append(res.Technologies, domain.Technology{
			Name: tech.Name, Version: tech.Version, Category: tech.Category,
		})
	}

	res.CapLists()
	return res
}

// NormalizeBrowser scores the browser session's observations with the same
// threshold bands as the heuristic classifier and attaches the sub-records.
func NormalizeBrowser(r *providers.BrowserReport) *domain.Result {
	res := &domain.Result{
		InputType: domain.InputURL,
		Source:    domain.SourceBrowserScan,
	}

	score := 0
	if !r.HTTPS {
		score += 4
		res.Threats = append(res.Threats, domain.ThreatInsecure)
		res.Indicators = append(res.Indicators, "Page is served over plain HTTP")
	}
	if r.TLS != nil && !r.TLS.Valid {
		score += 4
		res.Threats = append(res.Threats, domain.ThreatBadCertificate)
		res.Indicators = append(res.Indicators, "TLS certificate failed validation")
	}
	if r.HasLoginForm {
		if !r.HTTPS {
			score += 5
			res.Threats = append(res.Threats, domain.ThreatCredentialForm)
			res.Indicators = append(res.Indicators, "Password form on an unencrypted page")
		} else {
			score++
			res.Indicators = append(res.Indicators, "Page contains a password form")
		}
	}
	if len(r.MissingHeaders) >= 3 {
		score += 2
		res.Threats = append(res.Threats, domain.ThreatMissingHeaders)
		res.Indicators = append(res.Indicators,
			fmt.Sprintf("Missing security headers: %s", strings.Join(r.MissingHeaders, ", ")))
	}
	if len(r.RedirectChain) >= 3 {
		score += 3
		res.Threats = append(res.Threats, domain.ThreatRedirectChain)
		res.Indicators = append(res.Indicators,
			fmt.Sprintf("Long redirect chain (%d hops)", len(r.RedirectChain)))
	}
	if r.ConsoleErrors >= 5 {
		score++
		res.Indicators = append(res.Indicators,
			fmt.Sprintf("%d script errors during page load", r.ConsoleErrors))
	}

	res.ThreatScore = score
	res.ThreatLevel, res.Confidence = heuristic.LevelForScore(score, false)

	res.Security = &domain.SecurityInfo{
		HTTPS:          r.HTTPS,
		MissingHeaders: r.MissingHeaders,
		CertValid:      r.TLS == nil || r.TLS.Valid,
	}
	if r.TLS != nil {
		res.Security.TLSVersion = r.TLS.Version
		res.Security.CertIssuer = r.TLS.Issuer
		if !r.TLS.NotAfter.IsZero() {
			expires := r.TLS.NotAfter
			res.Security.CertExpiresAt = &expires
		}
	}
	res.Network = &domain.NetworkInfo{
		RequestCount:     r.RequestCount,
		ContactedDomains: r.ContactedDomains,
		RedirectChain:    r.RedirectChain,
		CookieCount:      r.CookieCount,
		ConsoleErrors:    r.ConsoleErrors,
	}
	res.Page = &domain.PageInfo{
		Title:        r.Title,
		StatusCode:   r.StatusCode,
		HasLoginForm: r.HasLoginForm,
	}
	for _, tech := range r.Technologies {
		res.Technologies = append(res.Technologies, domain.Technology{
			Name: tech.Name, Version: tech.Version, Category: tech.Category,
		})
	}

	res.CapLists()
	return res
}

/// NormalizeHeuristic wraps a classifier verdict. No sub-records: the
// heuristic path never observed the live page.
func NormalizeHeuristic(input domain.InputType, v heuristic.Verdict) *domain.Result {
	res := &domain.Result{
		InputType:   input,
		ThreatLevel: v.Level,
		Confidence:  v.Confidence,
		ThreatScore: v.Score,
		Indicators:  v.Indicators,
		Threats:     v.Threats,
		Keywords:    v.Keywords,
		Source:      domain.SourceHeuristic,
	}
	res.CapLists()
	return res
}

func threatTagForCategory(cat string) string {
	switch strings.ToLower(cat) {
	case "phishing":
		return domain.ThreatPhishing
	case "malware":
		return domain.ThreatMalware
	case "typosquatting", "brand impersonation":
		return domain.ThreatTyposquatting
	default:
		return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(cat), " ", "_"))
	}
}
