// Package providers defines the raw payload shapes returned by the external
// signal sources. Each shape is normalized into the canonical analysis.Result
// by the application layer; nothing here carries a verdict of its own.
package providers

import "time"

// ScanStatus is the lifecycle state of an asynchronous deep scan.
type ScanStatus string

const (
	StatusPending ScanStatus = "pending"
	StatusDone    ScanStatus = "done"
	StatusFailed  ScanStatus = "failed"
)

// StatusObserver is an optional hook invoked once per poll attempt, for
// progress logging. A nil observer is always acceptable.
type StatusObserver func(attempt int, status ScanStatus)

// DeepScanPage holds page-level metadata from a deep-scan provider.
type DeepScanPage struct {
	URL      string `json:"url,omitempty"`
	Domain   string `json:"domain,omitempty"`
	IP       string `json:"ip,omitempty"`
	ASN      string `json:"asn,omitempty"`
	Country  string `json:"country,omitempty"`
	Server   string `json:"server,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Status   int    `json:"status,omitempty"`
}

// DeepScanVerdict is the provider's own judgement of the target.
type DeepScanVerdict struct {
	Malicious  bool     `json:"malicious"`
	Score      int      `json:"score"` // provider scale 0-100
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
}

// DeepScanStats aggregates request-level counters from the provider.
type DeepScanStats struct {
	Requests       int `json:"requests"`
	Malicious      int `json:"malicious"`
	SecureRequests int `json:"secureRequests"`
}

// DeepScanTechnology is one fingerprinted technology.
type DeepScanTechnology struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Category string `json:"category,omitempty"`
}

// DeepScanReport is the completed result of a deep scan.
type DeepScanReport struct {
	ScanID       string               `json:"scan_id"`
	Page         DeepScanPage         `json:"page"`
	Verdict      DeepScanVerdict      `json:"verdict"`
	Stats        DeepScanStats        `json:"stats"`
	Technologies []DeepScanTechnology `json:"technologies,omitempty"`
}

// TLSInfo describes the certificate presented by the target.
type TLSInfo struct {
	Version   string
	Issuer    string
	Valid     bool
	NotAfter  time.Time
}

// BrowserReport is the outcome of one isolated headless-browser session.
type BrowserReport struct {
	FinalURL   string
	StatusCode int
	Title      string

	HTTPS          bool
	TLS            *TLSInfo
	MissingHeaders []string

	RequestCount     int
	ContactedDomains []string
	RedirectChain    []string
	CookieCount      int
	ConsoleErrors    int

	HasLoginForm bool
	Technologies []DeepScanTechnology

	Screenshot []byte
}
