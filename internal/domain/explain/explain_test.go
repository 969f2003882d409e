package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scamwatch/threatcheck/internal/domain/analysis"
)

func TestGenerate_PrizeScamNarrative(t *testing.T) {
	res := &analysis.Result{
		ThreatLevel: analysis.LevelDangerous,
		Confidence:  92,
		Keywords:    []string{"you have won", "lottery", "claim your"},
		Indicators:  []string{"Prize or lottery language detected (3 trigger terms)"},
	}

	summary, recs := Generate(res)

	assert.Contains(t, summary, "Dangerous content detected")
	assert.Contains(t, summary, "lottery scam")
	assert.Contains(t, summary, "What we found:")
	assert.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "Do not reply")
}

func TestGenerate_TieBrokenByDeclarationOrder(t *testing.T) {
	// One financial and one phishing keyword overlap each; financial is
	// declared first and must win.
	res := &analysis.Result{
		ThreatLevel: analysis.LevelSuspicious,
		Confidence:  72,
		Keywords:    []string{"wire transfer", "verify now"},
	}

	summary, _ := Generate(res)
	assert.Contains(t, summary, "financial scam")
}

func TestGenerate_GenericFallback(t *testing.T) {
	res := &analysis.Result{
		ThreatLevel: analysis.LevelSafe,
		Confidence:  90,
	}

	summary, recs := Generate(res)

	assert.Contains(t, summary, "No significant threat detected")
	assert.Contains(t, summary, "90%")
	assert.False(t, strings.Contains(summary, "What we found"))
	assert.NotEmpty(t, recs)
}

func TestGenerate_RecommendationsPerLevel(t *testing.T) {
	for _, level := range []analysis.ThreatLevel{
		analysis.LevelSafe, analysis.LevelSuspicious, analysis.LevelDangerous,
	} {
		_, recs := Generate(&analysis.Result{ThreatLevel: level, Confidence: 80})
		assert.NotEmpty(t, recs, string(level))
	}
}
