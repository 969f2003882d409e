package analysis

import (
	"time"
)

// AnalysisID identifier type
type AnalysisID string

// InputType enum
type InputType string

const (
	InputText  InputType = "text"
	InputURL   InputType = "url"
	InputEmail InputType = "email"
	InputPhone InputType = "phone"
)

// ThreatLevel enum, ordered from harmless to harmful
type ThreatLevel string

const (
	LevelSafe       ThreatLevel = "safe"
	LevelSuspicious ThreatLevel = "suspicious"
	LevelDangerous  ThreatLevel = "dangerous"
)

// Rank returns the position of the level in the safe < suspicious < dangerous
// ordering. Unknown levels rank below safe.
func (l ThreatLevel) Rank() int {
	switch l {
	case LevelSafe:
		return 1
	case LevelSuspicious:
		return 2
	case LevelDangerous:
		return 3
	}
	return 0
}

// Source records which stage of the fallback chain produced a verdict
type Source string

const (
	SourceDeepScan    Source = "deep_scan"
	SourceBrowserScan Source = "browser_scan"
	SourceHeuristic   Source = "heuristic_fallback"
)

// List caps keep the output bounded no matter how many rules matched.
const (
	MaxIndicators = 10
	MaxThreats    = 10
	MaxKeywords   = 8
)

// Canonical threat-tag codes shared by every verdict source
const (
	ThreatPhishing       = "PHISHING_PATTERN"
	ThreatTyposquatting  = "TYPOSQUATTING"
	ThreatUrgency        = "URGENCY_MANIPULATION"
	ThreatFinancialScam  = "FINANCIAL_SCAM"
	ThreatPrizeScam      = "PRIZE_SCAM"
	ThreatTechSupport    = "TECH_SUPPORT_SCAM"
	ThreatInfoHarvesting = "PERSONAL_INFO_HARVESTING"
	ThreatRomanceScam    = "ROMANCE_SCAM"
	ThreatSuspiciousTLD  = "SUSPICIOUS_TLD"
	ThreatURLShortener   = "URL_SHORTENER"
	ThreatRawIPHost      = "RAW_IP_URL"
	ThreatHomograph      = "HOMOGRAPH_ATTACK"
	ThreatManySubdomains = "EXCESSIVE_SUBDOMAINS"
	ThreatOddPort        = "NONSTANDARD_PORT"
	ThreatHarvestingPath = "DATA_HARVESTING_PATH"
	ThreatLongURL        = "EXCESSIVE_URL_LENGTH"
	ThreatKnownMalicious = "KNOWN_MALICIOUS"
	ThreatMalware        = "MALWARE_DISTRIBUTION"
	ThreatInsecure       = "INSECURE_TRANSPORT"
	ThreatBadCertificate = "INVALID_CERTIFICATE"
	ThreatMissingHeaders = "MISSING_SECURITY_HEADERS"
	ThreatCredentialForm = "CREDENTIAL_FORM"
	ThreatRedirectChain  = "SUSPICIOUS_REDIRECTS"
)

// DomainInfo value object, populated from deep-scan page data
type DomainInfo struct {
	Name      string `json:"name,omitempty"`
	IP        string `json:"ip,omitempty"`
	ASN       string `json:"asn,omitempty"`
	Country   string `json:"country,omitempty"`
	Server    string `json:"server,omitempty"`
	Registrar string `json:"registrar,omitempty"`
}

// SecurityInfo value object (transport security observations)
type SecurityInfo struct {
	HTTPS          bool       `json:"https"`
	TLSVersion     string     `json:"tls_version,omitempty"`
	CertIssuer     string     `json:"cert_issuer,omitempty"`
	CertValid      bool       `json:"cert_valid"`
	CertExpiresAt  *time.Time `json:"cert_expires_at,omitempty"`
	MissingHeaders []string   `json:"missing_headers,omitempty"`
}

// NetworkInfo value object (observed network behaviour of the page)
type NetworkInfo struct {
	RequestCount     int      `json:"request_count"`
	ContactedDomains []string `json:"contacted_domains,omitempty"`
	RedirectChain    []string `json:"redirect_chain,omitempty"`
	CookieCount      int      `json:"cookie_count"`
	ConsoleErrors    int      `json:"console_errors"`
}

// PageInfo value object
type PageInfo struct {
	Title         string `json:"title,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	HasLoginForm  bool   `json:"has_login_form"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

// Technology detected on the analyzed page
type Technology struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Category string `json:"category,omitempty"`
}

// Result is the single canonical output of an analysis. It is constructed
// once per request and never mutated afterwards.
type Result struct {
	InputType   InputType   `json:"input_type"`
	ThreatLevel ThreatLevel `json:"threat_level"`
	Confidence  int         `json:"confidence"`
	ThreatScore int         `json:"threat_score"`

	Indicators []string `json:"indicators"`
	Threats    []string `json:"threats"`
	Keywords   []string `json:"keywords,omitempty"`

	Domain       *DomainInfo   `json:"domain,omitempty"`
	Security     *SecurityInfo `json:"security,omitempty"`
	Network      *NetworkInfo  `json:"network,omitempty"`
	Page         *PageInfo     `json:"page,omitempty"`
	Technologies []Technology  `json:"technologies,omitempty"`

	Source          Source   `json:"source"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// CapLists trims indicators, threats and keywords to their configured caps.
// Called by the normalizer before a Result is handed out.
func (r *Result) CapLists() {
	if len(r.Indicators) > MaxIndicators {
		r.Indicators = r.Indicators[:MaxIndicators]
	}
	if len(r.Threats) > MaxThreats {
		r.Threats = r.Threats[:MaxThreats]
	}
	if len(r.Keywords) > MaxKeywords {
		r.Keywords = r.Keywords[:MaxKeywords]
	}
}

// Record is the audit row persisted for a finished analysis
type Record struct {
	ID            AnalysisID  `json:"id"`
	TenantID      string      `json:"tenant_id"`
	InputType     InputType   `json:"input_type"`
	Target        string      `json:"target"`
	ThreatLevel   ThreatLevel `json:"threat_level"`
	Confidence    int         `json:"confidence"`
	ThreatScore   int         `json:"threat_score"`
	Source        Source      `json:"source"`
	ResultJSON    string      `json:"result_json,omitempty"`
	ScreenshotURL string      `json:"screenshot_url,omitempty"`
	DurationMS    int64       `json:"duration_ms"`
	CreatedAt     time.Time   `json:"created_at"`
}

// StageError is a persisted record of one failed fallback stage. Stage
// failures never surface to the caller; they are kept for audit only.
type StageError struct {
	ID         int64     `json:"id"`
	TenantID   string    `json:"tenant_id"`
	AnalysisID string    `json:"analysis_id"`
	Stage      string    `json:"stage"` // deep_scan | browser_scan
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// LevelSummary aggregates verdict counts over a window
type LevelSummary struct {
	Total      int `json:"total_analyses"`
	Dangerous  int `json:"dangerous"`
	Suspicious int `json:"suspicious"`
	Safe       int `json:"safe"`
}
