package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/middleware"
)

type stubService struct {
	analyzeRes  *domain.Result
	analyzeErr  error
	getRec      *domain.Record
	getErr      error
	stageErrors []*domain.StageError
}

func (s *stubService) Analyze(ctx context.Context, tenant string, input domain.InputType, content string) (*domain.Result, error) {
	return s.analyzeRes, s.analyzeErr
}

func (s *stubService) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error) {
	return []*domain.Record{{ID: "rec-1", TenantID: tenant}}, nil
}

func (s *stubService) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Record, error) {
	return s.getRec, s.getErr
}

func (s *stubService) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedRecords, error) {
	return domain.PaginatedRecords{Page: 1, PageSize: 20}, nil
}

func (s *stubService) Summary(ctx context.Context, tenant string, sinceDays int) (domain.LevelSummary, error) {
	return domain.LevelSummary{Total: 3, Dangerous: 1, Safe: 2}, nil
}

func (s *stubService) ListStageErrors(ctx context.Context, tenant string, analysisID string, limit int) ([]*domain.StageError, error) {
	return s.stageErrors, nil
}

func newTestRouter(svc AnalysisService, opts Options) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRouter(svc, log, opts)
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	svc := &stubService{
		analyzeRes: &domain.Result{
			InputType:   domain.InputText,
			ThreatLevel: domain.LevelDangerous,
			Confidence:  92,
			Source:      domain.SourceHeuristic,
			Summary:     "This message is dangerous",
		},
	}
	h := newTestRouter(svc, Options{})

	rec := postJSON(t, h, "/v1/acme/analyze",
		map[string]string{"input_type": "text", "content": "URGENT wire money now"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.LevelDangerous, out.ThreatLevel)
	assert.Equal(t, 92, out.Confidence)
}

func TestAnalyzeValidationErrorIs400(t *testing.T) {
	svc := &stubService{
		analyzeErr: &domain.ValidationError{Field: "input_type", Reason: "must be one of text, url, email, phone"},
	}
	h := newTestRouter(svc, Options{})

	rec := postJSON(t, h, "/v1/acme/analyze",
		map[string]string{"input_type": "carrier-pigeon", "content": "hi"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "input_type")
}

func TestAnalyzeRejectsBadJSON(t *testing.T) {
	h := newTestRouter(&stubService{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRejectsBadTenant(t *testing.T) {
	h := newTestRouter(&stubService{}, Options{})

	rec := postJSON(t, h, "/v1/bad%20tenant!/analyze",
		map[string]string{"input_type": "text", "content": "hi"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownAnalysisIs404(t *testing.T) {
	h := newTestRouter(&stubService{getErr: domain.ErrNotFound}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	h := newTestRouter(&stubService{getRec: &domain.Record{ID: "rec-1"}}, Options{})

	for _, path := range []string{
		"/v1/acme/analyses/latest?limit=5",
		"/v1/acme/analyses/rec-1",
		"/v1/acme/analyses?page=1&page_size=20",
		"/v1/acme/summary?days=30",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}

func TestStageErrorsEndpoint(t *testing.T) {
	h := newTestRouter(&stubService{
		stageErrors: []*domain.StageError{
			{ID: 1, TenantID: "acme", AnalysisID: "rec-1", Stage: "deep_scan", Message: "provider timed out"},
		},
	}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses/rec-1/errors", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []*domain.StageError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "deep_scan", out[0].Stage)

	// no recorded failures still yields an empty JSON array
	req = httptest.NewRequest(http.MethodGet, "/v1/acme/analyses/rec-2/errors", nil)
	rec = httptest.NewRecorder()
	newTestRouter(&stubService{}, Options{}).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAuthRequiredWhenKeysConfigured(t *testing.T) {
	opts := Options{APIKeys: map[string]string{"acme": "secret-key"}}
	h := newTestRouter(&stubService{analyzeRes: &domain.Result{}}, opts)

	rec := postJSON(t, h, "/v1/acme/analyze",
		map[string]string{"input_type": "text", "content": "hi"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h, "/v1/acme/analyze",
		map[string]string{"input_type": "text", "content": "hi"},
		map[string]string{"Authorization": "Bearer secret-key"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h, "/v1/acme/analyze",
		map[string]string{"input_type": "text", "content": "hi"},
		map[string]string{"Authorization": "Bearer wrong-key"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthBypassesAuth(t *testing.T) {
	opts := Options{
		APIKeys: map[string]string{"acme": "secret-key"},
		HealthCheckers: map[string]middleware.HealthChecker{
			"self": middleware.CheckerFunc(func(ctx context.Context) error { return nil }),
		},
	}
	h := newTestRouter(&stubService{}, opts)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
