// Package browser implements the browser-automation provider adapter. Each
// scan runs the target in an isolated headless Chrome session and records
// what the page actually does: redirects, contacted hosts, TLS details,
// cookies, script errors and the rendered DOM.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

const (
	defaultTimeout  = 45 * time.Second
	maxTimeout      = 60 * time.Second
	defaultSessions = 2

	// Time given to the page after load so late redirects, beacons and
	// injected scripts show up in the session trace.
	settleDelay = 2 * time.Second
)

var watchedHeaders = []string{
	"Content-Security-Policy",
	"Strict-Transport-Security",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
}

type Config struct {
	Enabled     bool
	Timeout     time.Duration
	MaxSessions int64
}

type Scanner struct {
	cfg Config
	sem *semaphore.Weighted
	log *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) *Scanner {
	if cfg.Timeout <= 0 || cfg.Timeout > maxTimeout {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultSessions
	}
	return &Scanner{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxSessions),
		log: log,
	}
}

func (s *Scanner) IsConfigured() bool { return s.cfg.Enabled }

// Scan loads the target in a fresh Chrome instance. Concurrent sessions are
// bounded; waiting for a slot respects the caller's context.
func (s *Scanner) Scan(ctx context.Context, target string) (*providers.BrowserReport, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("browser session slot: %w", err)
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	trace := newSessionTrace(target)
	chromedp.ListenTarget(browserCtx, trace.handle)

	var (
		title      string
		pageHTML   string
		screenshot []byte
	)
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.Sleep(settleDelay),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := storage.GetCookies().Do(ctx)
			if err != nil {
				return nil
			}
			trace.setCookieCount(len(cookies))
			return nil
		}),
		chromedp.CaptureScreenshot(&screenshot),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("page did not settle within %s: %w",
				s.cfg.Timeout, domain.ErrProviderTimeout)
		}
		return nil, fmt.Errorf("browser session: %w", err)
	}

	report := trace.report()
	report.Title = title
	report.Screenshot = screenshot
	inspectHTML(pageHTML, report)

	s.log.WithFields(logrus.Fields{
		"target":    target,
		"final_url": report.FinalURL,
		"requests":  report.RequestCount,
		"redirects": len(report.RedirectChain),
	}).Info("browser scan complete")
	return report, nil
}

// sessionTrace accumulates CDP events for one session. chromedp delivers
// events from its own goroutine, so every field is guarded by the mutex.
type sessionTrace struct {
	mu sync.Mutex

	target        string
	finalURL      string
	statusCode    int
	https         bool
	tls           *providers.TLSInfo
	missing       []string
	requestCount  int
	hosts         map[string]struct{}
	redirects     []string
	cookieCount   int
	consoleErrors int
	sawDocument   bool
}

func newSessionTrace(target string) *sessionTrace {
	return &sessionTrace{target: target, hosts: map[string]struct{}{}}
}

func (t *sessionTrace) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.requestCount++
		if u, err := url.Parse(e.Request.URL); err == nil && u.Hostname() != "" {
			t.hosts[u.Hostname()] = struct{}{}
		}
		if e.Type == network.ResourceTypeDocument && e.RedirectResponse != nil {
			t.redirects = append(t.redirects, e.RedirectResponse.URL)
		}

	case *network.EventResponseReceived:
		if e.Type != network.ResourceTypeDocument || t.sawDocument {
			return
		}
		t.sawDocument = true
		t.finalURL = e.Response.URL
		t.statusCode = int(e.Response.Status)
		t.https = strings.HasPrefix(e.Response.URL, "https://")
		if sd := e.Response.SecurityDetails; sd != nil {
			info := &providers.TLSInfo{
				Version: sd.Protocol,
				Issuer:  sd.Issuer,
				Valid:   e.Response.SecurityState == security.StateSecure,
			}
			if sd.ValidTo != nil {
				info.NotAfter = sd.ValidTo.Time()
			}
			t.tls = info
		}
		t.missing = missingSecurityHeaders(e.Response.Headers, t.https)

	case *runtime.EventExceptionThrown:
		t.consoleErrors++

	case *runtime.EventConsoleAPICalled:
		if e.Type == runtime.APITypeError {
			t.consoleErrors++
		}
	}
}

func (t *sessionTrace) setCookieCount(n int) {
	t.mu.Lock()
	t.cookieCount = n
	t.mu.Unlock()
}

func (t *sessionTrace) report() *providers.BrowserReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := &providers.BrowserReport{
		FinalURL:       t.finalURL,
		StatusCode:     t.statusCode,
		HTTPS:          t.https,
		TLS:            t.tls,
		MissingHeaders: t.missing,
		RequestCount:   t.requestCount,
		RedirectChain:  t.redirects,
		CookieCount:    t.cookieCount,
		ConsoleErrors:  t.consoleErrors,
	}
	if r.FinalURL == "" {
		r.FinalURL = t.target
		r.HTTPS = strings.HasPrefix(t.target, "https://")
	}
	for host := range t.hosts {
		r.ContactedDomains = append(r.ContactedDomains, host)
	}
	return r
}

// missingSecurityHeaders reports which of the watched response headers the
// main document lacks. HSTS is only expected on HTTPS responses.
func missingSecurityHeaders(headers network.Headers, https bool) []string {
	present := make(map[string]bool, len(headers))
	for name := range headers {
		present[strings.ToLower(name)] = true
	}
	var missing []string
	for _, h := range watchedHeaders {
		if h == "Strict-Transport-Security" && !https {
			continue
		}
		if !present[strings.ToLower(h)] {
			missing = append(missing, h)
		}
	}
	return missing
}
