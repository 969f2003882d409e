package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

func TestInspectHTMLDetectsPasswordForm(t *testing.T) {
	r := &providers.BrowserReport{}
	inspectHTML(`<html><head><title>Sign in</title></head><body>
		<form action="/login" method="post">
			<input type="text" name="user">
			<input type="PASSWORD" name="pass">
		</form></body></html>`, r)

	assert.True(t, r.HasLoginForm)
	assert.Equal(t, "Sign in", r.Title)
}

func TestInspectHTMLKeepsExistingTitle(t *testing.T) {
	r := &providers.BrowserReport{Title: "From CDP"}
	inspectHTML(`<html><head><title>From DOM</title></head><body></body></html>`, r)
	assert.Equal(t, "From CDP", r.Title)
}

func TestInspectHTMLFingerprintsTechnologies(t *testing.T) {
	r := &providers.BrowserReport{}
	inspectHTML(`<html><head>
		<link rel="stylesheet" href="/assets/bootstrap.min.css">
		<script src="https://code.jquery.com/jquery-3.7.1.min.js"></script>
		<script src="https://www.googletagmanager.com/gtag/js"></script>
	</head><body><div id="app" data-reactroot=""></div></body></html>`, r)

	var names []string
	for _, tech := range r.Technologies {
		names = append(names, tech.Name)
	}
	assert.Contains(t, names, "jQuery")
	assert.Contains(t, names, "Bootstrap")
	assert.Contains(t, names, "Google Analytics")
	assert.Contains(t, names, "React")
}

func TestInspectHTMLGeneratorMeta(t *testing.T) {
	r := &providers.BrowserReport{}
	inspectHTML(`<html><head><meta name="generator" content="WordPress 6.4"></head><body></body></html>`, r)

	assert.Len(t, r.Technologies, 1)
	assert.Equal(t, "WordPress", r.Technologies[0].Name)
}

func TestInspectHTMLIgnoresGarbage(t *testing.T) {
	r := &providers.BrowserReport{}
	inspectHTML("   ", r)
	assert.False(t, r.HasLoginForm)
	assert.Empty(t, r.Technologies)
}

func TestMissingSecurityHeaders(t *testing.T) {
	headers := map[string]interface{}{
		"content-security-policy": "default-src 'self'",
		"X-Content-Type-Options":  "nosniff",
	}
	missing := missingSecurityHeaders(headers, true)
	assert.ElementsMatch(t, []string{
		"Strict-Transport-Security", "X-Frame-Options", "Referrer-Policy",
	}, missing)

	// HSTS is not expected on plain HTTP
	missing = missingSecurityHeaders(map[string]interface{}{}, false)
	assert.NotContains(t, missing, "Strict-Transport-Security")
	assert.Contains(t, missing, "Content-Security-Policy")
}
