package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scamwatch/threatcheck/internal/application"
	"github.com/scamwatch/threatcheck/internal/domain/ai"
	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/explain"
	"github.com/scamwatch/threatcheck/internal/domain/heuristic"
	"github.com/scamwatch/threatcheck/internal/domain/providers"
	"github.com/scamwatch/threatcheck/internal/pkg/metrics"
)

// Stage names used for logging, metrics and persisted stage errors.
const (
	StageDeepScan    = "deep_scan"
	StageBrowserScan = "browser_scan"
)

// Service orchestrates the fallback chain: deep scan, then browser scan,
// then the local heuristic classifier. Every analysis produces a result;
// provider failures are downgraded to the next stage, never surfaced.
type Service struct {
	Log *logrus.Logger

	Deep       domain.DeepScanner
	Browser    domain.BrowserScanner
	Extractor  ai.TextExtractor
	Classifier *heuristic.Classifier

	Repo        domain.Repository
	StageErrors domain.StageErrorRepository
	Artifacts   domain.ArtifactStore

	Clock application.Clock
}

func NewService(
	log *logrus.Logger,
	deep domain.DeepScanner,
	browser domain.BrowserScanner,
	extractor ai.TextExtractor,
	classifier *heuristic.Classifier,
	repo domain.Repository,
	stageErrors domain.StageErrorRepository,
	artifacts domain.ArtifactStore,
	clock application.Clock,
) *Service {
	if classifier == nil {
		classifier = heuristic.NewClassifier(nil)
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{
		Log:         log,
		Deep:        deep,
		Browser:     browser,
		Extractor:   extractor,
		Classifier:  classifier,
		Repo:        repo,
		StageErrors: stageErrors,
		Artifacts:   artifacts,
		Clock:       clock,
	}
}

// Analyze runs the full pipeline for one input and returns the canonical
// result. The only error it can return is a validation error; once the input
// is accepted, some verdict is always produced.
func (s *Service) Analyze(ctx context.Context, tenant string, input domain.InputType, content string) (*domain.Result, error) {
	input, err := ParseInputType(string(input))
	if err != nil {
		return nil, err
	}
	if err := ValidateInput(input, content); err != nil {
		return nil, err
	}

	started := s.Clock.Now()
	id := domain.AnalysisID(uuid.New().String() + "-" + string(input))

	var res *domain.Result
	var screenshot []byte
	if input == domain.InputURL {
		res, screenshot = s.scanURL(ctx, tenant, id, content)
	}
	if res == nil {
		res = s.classify(ctx, input, content)
	}

	if len(screenshot) > 0 && s.Artifacts != nil {
		key := fmt.Sprintf("%s/%s/screenshot.png", tenant, id)
		url, err := s.Artifacts.PutScreenshot(ctx, key, screenshot)
		if err != nil {
			s.Log.WithError(err).WithField("analysis_id", id).Warn("screenshot upload failed")
		} else {
			if res.Page == nil {
				res.Page = &domain.PageInfo{}
			}
			res.Page.ScreenshotURL = url
		}
	}

	res.Summary, res.Recommendations = explain.Generate(res)
	metrics.AnalysesTotal.WithLabelValues(string(res.Source), string(res.ThreatLevel)).Inc()

	s.persist(tenant, id, content, res, started)
	return res, nil
}

// scanURL walks the provider stages in order. Each configured stage gets
// exactly one attempt; the first success wins. A nil return means every
// stage was skipped or failed and the heuristic fallback must run.
func (s *Service) scanURL(ctx context.Context, tenant string, id domain.AnalysisID, target string) (*domain.Result, []byte) {
	if s.Deep != nil && s.Deep.IsConfigured() {
		started := s.Clock.Now()
		report, screenshot, err := s.Deep.Scan(ctx, target, s.observer(id))
		metrics.StageDuration.WithLabelValues(StageDeepScan).Observe(s.Clock.Now().Sub(started).Seconds())
		if err == nil {
			return NormalizeDeepScan(report), screenshot
		}
		s.stageFailed(tenant, id, StageDeepScan, err)
	}

	if s.Browser != nil && s.Browser.IsConfigured() {
		started := s.Clock.Now()
		report, err := s.Browser.Scan(ctx, target)
		metrics.StageDuration.WithLabelValues(StageBrowserScan).Observe(s.Clock.Now().Sub(started).Seconds())
		if err == nil {
			return NormalizeBrowser(report), report.Screenshot
		}
		s.stageFailed(tenant, id, StageBrowserScan, err)
	}

	return nil, nil
}

// classify is the terminal stage. It consults the optional text extractor
// first, then runs the local classifier. It cannot fail.
func (s *Service) classify(ctx context.Context, input domain.InputType, content string) *domain.Result {
	text := content
	if input != domain.InputURL && s.Extractor != nil && s.Extractor.IsConfigured() {
		cleaned, err := s.Extractor.Extract(ctx, content)
		if err != nil {
			s.Log.WithError(err).Warn("text extraction failed, classifying raw content")
		} else if cleaned != "" {
			text = cleaned
		}
	}
	verdict := s.Classifier.Classify(input, text)
	return NormalizeHeuristic(input, verdict)
}

func (s *Service) observer(id domain.AnalysisID) providers.StatusObserver {
	return func(attempt int, status providers.ScanStatus) {
		s.Log.WithFields(logrus.Fields{
			"analysis_id": id,
			"attempt":     attempt,
			"status":      status,
		}).Debug("deep scan poll")
	}
}

// stageFailed records a provider failure and lets the chain continue.
func (s *Service) stageFailed(tenant string, id domain.AnalysisID, stage string, err error) {
	reason := "failure"
	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		reason = "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "cancelled"
	case errors.Is(err, domain.ErrProviderUnavailable):
		reason = "unavailable"
	}
	metrics.StageFailuresTotal.WithLabelValues(stage, reason).Inc()
	s.Log.WithError(err).WithFields(logrus.Fields{
		"analysis_id": id,
		"stage":       stage,
		"reason":      reason,
	}).Warn("provider stage failed, falling through")

	if s.StageErrors == nil {
		return
	}
	// Audit write happens off the request context so a cancelled request
	// still leaves a trace.
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e := &domain.StageError{
		TenantID:   tenant,
		AnalysisID: string(id),
		Stage:      stage,
		Message:    err.Error(),
		CreatedAt:  s.Clock.Now(),
	}
	if saveErr := s.StageErrors.Save(saveCtx, e); saveErr != nil {
		s.Log.WithError(saveErr).Warn("could not persist stage error")
	}
}

// persist writes the audit record. Persistence is best effort: a storage
// failure is logged and the result is still returned to the caller.
func (s *Service) persist(tenant string, id domain.AnalysisID, target string, res *domain.Result, started time.Time) {
	if s.Repo == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		s.Log.WithError(err).Error("could not marshal analysis result")
		return
	}
	rec := &domain.Record{
		ID:          id,
		TenantID:    tenant,
		InputType:   res.InputType,
		Target:      target,
		ThreatLevel: res.ThreatLevel,
		Confidence:  res.Confidence,
		ThreatScore: res.ThreatScore,
		Source:      res.Source,
		ResultJSON:  string(payload),
		DurationMS:  s.Clock.Now().Sub(started).Milliseconds(),
		CreatedAt:   started,
	}
	if res.Page != nil {
		rec.ScreenshotURL = res.Page.ScreenshotURL
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Repo.Save(saveCtx, rec); err != nil {
		s.Log.WithError(err).WithField("analysis_id", id).Error("could not persist analysis record")
	}
}

// Latest returns the most recent records for a tenant.
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get returns one record by ID.
func (s *Service) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Record, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Paginate returns a page of history records.
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedRecords, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// ListStageErrors lists the persisted fallback-stage failures for one analysis.
func (s *Service) ListStageErrors(ctx context.Context, tenant string, analysisID string, limit int) ([]*domain.StageError, error) {
	if s.StageErrors == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.StageErrors.ListByAnalysis(ctx, tenant, analysisID, limit)
}

// Summary aggregates verdict counts over the trailing window.
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (domain.LevelSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	return s.Repo.Summary(ctx, tenant, sinceDays)
}
