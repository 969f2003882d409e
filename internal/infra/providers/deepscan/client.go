// Package deepscan implements the deep-scan provider adapter. The provider
// exposes a urlscan.io-style API: scan submission returns a UUID, the result
// endpoint answers 404 until processing finishes, and a rendered screenshot
// is served as a separate PNG resource.
package deepscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/providers"
	"github.com/scamwatch/threatcheck/internal/pkg/metrics"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultMaxAttempts  = 40
	defaultHTTPTimeout  = 30 * time.Second
)

type Config struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPTimeout  time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := promhttp.InstrumentRoundTripperDuration(
		metrics.HTTPClientRequestDuration,
		promhttp.InstrumentRoundTripperCounter(metrics.HTTPClientRequestsTotal, http.DefaultTransport))

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: transport,
		},
		log: log,
	}
}

func (c *Client) IsConfigured() bool {
	return c.cfg.BaseURL != "" && c.cfg.APIKey != ""
}

// Scan submits the target and polls until the provider publishes a result.
// Poll errors count against the attempt budget; exhausting the budget yields
// ErrProviderTimeout so the orchestrator can fall through.
func (c *Client) Scan(ctx context.Context, target string, obs providers.StatusObserver) (*providers.DeepScanReport, []byte, error) {
	scanID, err := c.submit(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	c.log.WithFields(logrus.Fields{"scan_id": scanID, "target": target}).Info("deep scan submitted")

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}

		report, status, err := c.fetchResult(ctx, scanID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			c.log.WithError(err).WithField("scan_id", scanID).Warn("deep scan poll failed")
			if obs != nil {
				obs(attempt, providers.StatusFailed)
			}
			continue
		}
		if obs != nil {
			obs(attempt, status)
		}
		if status == providers.StatusDone {
			screenshot := c.fetchScreenshot(ctx, scanID)
			return report, screenshot, nil
		}
	}

	return nil, nil, fmt.Errorf("scan %s still pending after %d polls: %w",
		scanID, c.cfg.MaxAttempts, domain.ErrProviderTimeout)
}

func (c *Client) submit(ctx context.Context, target string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"url":        target,
		"visibility": "private",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/v1/scan/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit scan: %v: %w", err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("submit scan: provider returned %d: %w",
			resp.StatusCode, domain.ErrProviderUnavailable)
	}

	var out struct {
		UUID string `json:"uuid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode scan submission: %w", err)
	}
	if out.UUID == "" {
		return "", fmt.Errorf("scan submission returned no uuid: %w", domain.ErrProviderUnavailable)
	}
	return out.UUID, nil
}

// resultPayload mirrors the provider's result document. Only the fields the
// normalizer consumes are decoded.
type resultPayload struct {
	Page providers.DeepScanPage `json:"page"`
	Verdicts struct {
		Overall struct {
			Malicious  bool     `json:"malicious"`
			Score      int      `json:"score"`
			Categories []string `json:"categories"`
			Brands     []string `json:"brands"`
		} `json:"overall"`
	} `json:"verdicts"`
	Stats        providers.DeepScanStats        `json:"stats"`
	Technologies []providers.DeepScanTechnology `json:"technologies"`
}

func (c *Client) fetchResult(ctx context.Context, scanID string) (*providers.DeepScanReport, providers.ScanStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/v1/result/"+scanID, nil)
	if err != nil {
		return nil, providers.StatusFailed, err
	}
	req.Header.Set("API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, providers.StatusFailed, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// not ready yet
		io.Copy(io.Discard, resp.Body)
		return nil, providers.StatusPending, nil
	case resp.StatusCode != http.StatusOK:
		return nil, providers.StatusFailed, fmt.Errorf("result endpoint returned %d", resp.StatusCode)
	}

	var payload resultPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, providers.StatusFailed, fmt.Errorf("decode result: %w", err)
	}

	report := &providers.DeepScanReport{
		ScanID: scanID,
		Page:   payload.Page,
		Verdict: providers.DeepScanVerdict{
			Malicious:  payload.Verdicts.Overall.Malicious,
			Score:      payload.Verdicts.Overall.Score,
			Categories: payload.Verdicts.Overall.Categories,
			Brands:     payload.Verdicts.Overall.Brands,
		},
		Stats:        payload.Stats,
		Technologies: payload.Technologies,
	}
	return report, providers.StatusDone, nil
}

// fetchScreenshot is best effort. A missing screenshot never fails the scan.
func (c *Client) fetchScreenshot(ctx context.Context, scanID string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/screenshots/"+scanID+".png", nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("scan_id", scanID).Debug("screenshot fetch failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return png
}
