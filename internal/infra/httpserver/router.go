package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	domai "github.com/scamwatch/threatcheck/internal/domain/ai"
	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/middleware"
)

// AnalysisService is the application surface the router needs.
type AnalysisService interface {
	Analyze(ctx context.Context, tenant string, input domain.InputType, content string) (*domain.Result, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error)
	Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Record, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedRecords, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (domain.LevelSummary, error)
	ListStageErrors(ctx context.Context, tenant string, analysisID string, limit int) ([]*domain.StageError, error)
}

type Options struct {
	APIKeys        map[string]string // tenant -> key; empty disables auth
	RateLimit      int               // requests per minute per tenant+IP; 0 disables
	Registry       *prometheus.Registry
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc AnalysisService
	log *logrus.Logger
}

func NewRouter(svc AnalysisService, log *logrus.Logger, opts Options) http.Handler {
	r := &Router{svc: svc, log: log}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware(log))
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.RateLimit > 0 {
		burst := opts.RateLimit
		perSecond := opts.RateLimit / 60
		if perSecond <= 0 {
			perSecond = 1
		}
		mux.Use(middleware.RateLimitMiddleware(burst, perSecond))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	if opts.Registry != nil {
		mux.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{id}/errors", r.wrap(r.handleStageErrors))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if domain.IsValidation(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
				return
			}
			r.log.WithError(err).Error("request failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// POST /v1/{tenant}/analyze
// Body: {"input_type": "url|text|email|phone", "content": "<raw content>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return &domain.ValidationError{Field: "tenant", Reason: err.Error()}
	}

	var body struct {
		InputType string `json:"input_type"`
		Content   string `json:"content"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "request body is not valid JSON"}
	}

	input := domain.InputType(body.InputType)
	result, err := r.svc.Analyze(req.Context(), tenant, input, body.Content)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/{tenant}/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	rec, err := r.svc.Get(req.Context(), tenant, domain.AnalysisID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rec)
}

// GET /v1/{tenant}/analyses/{id}/errors?limit=20
func (r *Router) handleStageErrors(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.ListStageErrors(req.Context(), tenant, id, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.StageError{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Paginate(req.Context(), tenant, page, size)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/summary?days=30
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.svc.Summary(req.Context(), tenant, days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}
