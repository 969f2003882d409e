package deepscan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		PollInterval: time.Millisecond,
		MaxAttempts:  5,
	}, testLogger())
}

func TestScanPollsUntilResultReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/scan/":
			assert.Equal(t, "test-key", r.Header.Get("API-Key"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https://evil.example/", body["url"])
			json.NewEncoder(w).Encode(map[string]string{"uuid": "scan-1"})

		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/result/scan-1":
			if polls.Add(1) < 3 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"page": map[string]any{"domain": "evil.example", "status": 200},
				"verdicts": map[string]any{
					"overall": map[string]any{
						"malicious": true, "score": 85, "categories": []string{"phishing"},
					},
				},
				"stats": map[string]any{"requests": 10, "malicious": 2},
			})

		case r.Method == http.MethodGet && r.URL.Path == "/screenshots/scan-1.png":
			w.Write([]byte("png-bytes"))

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	var observed []providers.ScanStatus
	obs := func(attempt int, status providers.ScanStatus) {
		observed = append(observed, status)
	}

	report, screenshot, err := testClient(srv.URL).Scan(context.Background(), "https://evil.example/", obs)
	require.NoError(t, err)

	assert.Equal(t, "scan-1", report.ScanID)
	assert.True(t, report.Verdict.Malicious)
	assert.Equal(t, 85, report.Verdict.Score)
	assert.Equal(t, "evil.example", report.Page.Domain)
	assert.Equal(t, []byte("png-bytes"), screenshot)
	assert.Equal(t, []providers.ScanStatus{
		providers.StatusPending, providers.StatusPending, providers.StatusDone,
	}, observed)
}

func TestScanTimesOutWhenResultNeverAppears(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"uuid": "scan-2"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).Scan(context.Background(), "https://slow.example/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
}

func TestScanReturnsContextErrorWhenCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"uuid": "scan-3"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Millisecond)
	defer cancel()

	_, _, err := testClient(srv.URL).Scan(ctx, "https://slow.example/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScanSubmitFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).Scan(context.Background(), "https://evil.example/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestScanPollErrorsCountAgainstBudget(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"uuid": "scan-4"})
			return
		}
		polls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).Scan(context.Background(), "https://flaky.example/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	assert.EqualValues(t, 5, polls.Load())
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, New(Config{BaseURL: "https://scan.example", APIKey: "k"}, testLogger()).IsConfigured())
	assert.False(t, New(Config{BaseURL: "https://scan.example"}, testLogger()).IsConfigured())
	assert.False(t, New(Config{APIKey: "k"}, testLogger()).IsConfigured())
}
