package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/heuristic"
	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

func TestNormalizeDeepScanMaliciousVerdict(t *testing.T) {
	res := NormalizeDeepScan(&providers.DeepScanReport{
		ScanID: "s1",
		Verdict: providers.DeepScanVerdict{
			Malicious:  true,
			Score:      88,
			Categories: []string{"phishing"},
			Brands:     []string{"PayPal"},
		},
		Page:  providers.DeepScanPage{Domain: "evil.example", IP: "203.0.113.9", Country: "US", Status: 200},
		Stats: providers.DeepScanStats{Requests: 42, Malicious: 3},
	})

	assert.Equal(t, domain.LevelDangerous, res.ThreatLevel)
	assert.Equal(t, 94, res.Confidence) // 85 + (88-70)/2
	assert.Equal(t, domain.SourceDeepScan, res.Source)
	assert.Contains(t, res.Threats, domain.ThreatKnownMalicious)
	assert.Contains(t, res.Threats, domain.ThreatPhishing)

	require.NotNil(t, res.Domain)
	assert.Equal(t, "evil.example", res.Domain.Name)
	require.NotNil(t, res.Network)
	assert.Equal(t, 42, res.Network.RequestCount)
}

func TestNormalizeDeepScanBands(t *testing.T) {
	cases := []struct {
		score int
		level domain.ThreatLevel
		conf  int
	}{
		{0, domain.LevelSafe, 95},
		{29, domain.LevelSafe, 70},
		{30, domain.LevelSuspicious, 60},
		{54, domain.LevelSuspicious, 84},
		{69, domain.LevelSuspicious, 84},
		{70, domain.LevelDangerous, 85},
		{98, domain.LevelDangerous, 99},
		{100, domain.LevelDangerous, 99},
	}
	for _, tc := range cases {
		res := NormalizeDeepScan(&providers.DeepScanReport{
			Verdict: providers.DeepScanVerdict{Score: tc.score},
		})
		assert.Equal(t, tc.level, res.ThreatLevel, "score %d", tc.score)
		assert.Equal(t, tc.conf, res.Confidence, "score %d", tc.score)
	}
}

func TestNormalizeDeepScanCapsIndicatorList(t *testing.T) {
	verdict := providers.DeepScanVerdict{Malicious: true}
	for i := 0; i < 20; i++ {
		verdict.Brands = append(verdict.Brands, fmt.Sprintf("brand-%d", i))
	}
	res := NormalizeDeepScan(&providers.DeepScanReport{Verdict: verdict})

	assert.Len(t, res.Indicators, domain.MaxIndicators)
}

func TestNormalizeHeuristicCapsAllLists(t *testing.T) {
	v := heuristic.Verdict{Score: 22, Level: domain.LevelDangerous, Confidence: 92}
	for i := 0; i < 15; i++ {
		v.Indicators = append(v.Indicators, fmt.Sprintf("indicator %d", i))
		v.Threats = append(v.Threats, fmt.Sprintf("THREAT_%d", i))
		v.Keywords = append(v.Keywords, fmt.Sprintf("keyword-%d", i))
	}

	res := NormalizeHeuristic(domain.InputText, v)

	assert.Len(t, res.Indicators, domain.MaxIndicators)
	assert.Len(t, res.Threats, domain.MaxThreats)
	assert.Len(t, res.Keywords, domain.MaxKeywords)
}

func TestNormalizeBrowserCredentialFormOverHTTP(t *testing.T) {
	res := NormalizeBrowser(&providers.BrowserReport{
		FinalURL:     "http://login.example/",
		StatusCode:   200,
		HTTPS:        false,
		HasLoginForm: true,
		Title:        "Sign in",
	})

	// plain HTTP (4) plus credential form on HTTP (5) lands in the
	// suspicious band: 70 + 9/2 = 74
	assert.Equal(t, domain.LevelSuspicious, res.ThreatLevel)
	assert.Equal(t, 74, res.Confidence)
	assert.Contains(t, res.Threats, domain.ThreatInsecure)
	assert.Contains(t, res.Threats, domain.ThreatCredentialForm)
	require.NotNil(t, res.Page)
	assert.True(t, res.Page.HasLoginForm)
}

func TestNormalizeBrowserCleanHTTPSPage(t *testing.T) {
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	res := NormalizeBrowser(&providers.BrowserReport{
		FinalURL:   "https://shop.example/",
		StatusCode: 200,
		HTTPS:      true,
		TLS:        &providers.TLSInfo{Version: "TLS 1.3", Issuer: "R3", Valid: true, NotAfter: expires},
		Title:      "Shop",
	})

	assert.Equal(t, domain.LevelSafe, res.ThreatLevel)
	assert.Equal(t, 90, res.Confidence)
	assert.Empty(t, res.Threats)
	require.NotNil(t, res.Security)
	assert.True(t, res.Security.HTTPS)
	assert.True(t, res.Security.CertValid)
	require.NotNil(t, res.Security.CertExpiresAt)
	assert.Equal(t, expires, *res.Security.CertExpiresAt)
}

func TestNormalizeBrowserAccumulatesSignals(t *testing.T) {
	res := NormalizeBrowser(&providers.BrowserReport{
		FinalURL:       "http://bad.example/",
		HTTPS:          false,
		TLS:            &providers.TLSInfo{Valid: false},
		HasLoginForm:   true,
		MissingHeaders: []string{"Content-Security-Policy", "Strict-Transport-Security", "X-Frame-Options"},
		RedirectChain:  []string{"a", "b", "c"},
		ConsoleErrors:  7,
	})

	// 4 + 4 + 5 + 2 + 3 + 1 = 19
	assert.Equal(t, 19, res.ThreatScore)
	assert.Equal(t, domain.LevelDangerous, res.ThreatLevel)
	assert.Contains(t, res.Threats, domain.ThreatBadCertificate)
	assert.Contains(t, res.Threats, domain.ThreatMissingHeaders)
	assert.Contains(t, res.Threats, domain.ThreatRedirectChain)
}

func TestThreatTagForCategory(t *testing.T) {
	assert.Equal(t, domain.ThreatPhishing, threatTagForCategory("Phishing"))
	assert.Equal(t, domain.ThreatMalware, threatTagForCategory("malware"))
	assert.Equal(t, domain.ThreatTyposquatting, threatTagForCategory("brand impersonation"))
	assert.Equal(t, "CRYPTO_SCAM", threatTagForCategory("crypto scam"))
}
