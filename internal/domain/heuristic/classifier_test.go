package heuristic

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamwatch/threatcheck/internal/domain/analysis"
)

func TestClassifyText_PhishingWithTyposquat(t *testing.T) {
	c := NewClassifier(nil)

	v := c.Classify(analysis.InputText,
		"URGENT: Your account is suspended, verify now at http://paypa1-secure.com")

	assert.Equal(t, analysis.LevelDangerous, v.Level)
	assert.True(t, v.Typosquat)
	assert.GreaterOrEqual(t, v.Confidence, 85)
	assert.Contains(t, v.Threats, analysis.ThreatTyposquatting)
	assert.NotEmpty(t, v.Indicators)
	assert.NotEmpty(t, v.Keywords)
}

func TestClassifyText_BenignMessage(t *testing.T) {
	c := NewClassifier(nil)

	v := c.Classify(analysis.InputText, "Hey, are we still meeting for lunch tomorrow?")

	assert.Equal(t, analysis.LevelSafe, v.Level)
	assert.GreaterOrEqual(t, v.Confidence, 70)
	assert.Zero(t, v.Score)
	assert.Empty(t, v.Threats)
}

func TestClassifyText_TyposquatAloneForcesDangerous(t *testing.T) {
	c := NewClassifier(nil)

	// Keyword sum is far below the dangerous threshold; the look-alike
	// brand spelling must force the level anyway.
	v := c.Classify(analysis.InputText, "check out g00gle for details")

	assert.Less(t, v.Score-TyposquatWeight, DangerousScore)
	assert.Equal(t, analysis.LevelDangerous, v.Level)
	assert.Contains(t, v.Threats, analysis.ThreatTyposquatting)
}

func TestClassifyText_LegitimateBrandMentionIsNotTyposquat(t *testing.T) {
	c := NewClassifier(nil)

	v := c.Classify(analysis.InputText, "I paid with paypal yesterday, all fine")

	assert.False(t, v.Typosquat)
	assert.NotContains(t, v.Threats, analysis.ThreatTyposquatting)
}

func TestClassifyText_ContextBonusRewardsCombinations(t *testing.T) {
	c := NewClassifier(nil)

	single := c.Classify(analysis.InputText, "your parcel was suspended")
	combo := c.Classify(analysis.InputText, "your account was suspended")

	// "suspended"+"account" is a known pressure pair and must add more than
	// the plain keyword sum.
	assert.Greater(t, combo.Score, single.Score)
}

func TestClassifyText_MoneyTermCombo(t *testing.T) {
	c := NewClassifier(nil)

	v := c.Classify(analysis.InputText,
		"send the cash via wire to my bank and the transfer clears today")

	found := false
	for _, ind := range v.Indicators {
		if strings.Contains(ind, "money-related") {
			found = true
		}
	}
	assert.True(t, found, "expected money-combo indicator, got %v", v.Indicators)
}

func TestLevelForScore_Bands(t *testing.T) {
	cases := []struct {
		score     int
		typosquat bool
		level     analysis.ThreatLevel
		conf      int
	}{
		{0, false, analysis.LevelSafe, 90},
		{1, false, analysis.LevelSafe, 85},
		{2, false, analysis.LevelSuspicious, 64},
		{4, false, analysis.LevelSuspicious, 68},
		{5, false, analysis.LevelSuspicious, 72},
		{9, false, analysis.LevelSuspicious, 74},
		{10, false, analysis.LevelDangerous, 88},
		{50, false, analysis.LevelDangerous, 99},
		{3, true, analysis.LevelDangerous, 86},
	}
	for _, tc := range cases {
		level, conf := LevelForScore(tc.score, tc.typosquat)
		assert.Equal(t, tc.level, level, "score=%d typosquat=%v", tc.score, tc.typosquat)
		assert.Equal(t, tc.conf, conf, "score=%d typosquat=%v", tc.score, tc.typosquat)
	}
}

// Adding matching keywords must never decrease the score or downgrade the
// level: random supersets of a keyword set score at least as high.
func TestClassifyText_Monotonicity(t *testing.T) {
	c := NewClassifier(nil)
	pool := []string{
		"urgent", "you have won", "wire transfer", "gift card", "suspended",
		"verify now", "lottery", "social security", "tech support",
		"congratulations", "bitcoin", "claim your",
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var subset, superset []string
		for _, kw := range pool {
			switch rng.Intn(3) {
			case 0: // both
				subset = append(subset, kw)
				superset = append(superset, kw)
			case 1: // superset only
				superset = append(superset, kw)
			}
		}
		sub := c.Classify(analysis.InputText, strings.Join(subset, " "))
		sup := c.Classify(analysis.InputText, strings.Join(superset, " "))

		require.GreaterOrEqual(t, sup.Score, sub.Score,
			"subset=%v superset=%v", subset, superset)
		require.GreaterOrEqual(t, sup.Level.Rank(), sub.Level.Rank(),
			"subset=%v superset=%v", subset, superset)
	}
}

func TestClassify_EmailAndPhoneUseTextRules(t *testing.T) {
	c := NewClassifier(nil)

	v := c.Classify(analysis.InputEmail,
		"Congratulations, you have won the lottery! Claim your prize now, urgent!")
	assert.GreaterOrEqual(t, v.Level.Rank(), analysis.LevelSuspicious.Rank())

	p := c.Classify(analysis.InputPhone, "+1 555 0100 tech support call microsoft")
	assert.NotEmpty(t, p.Indicators)
}
