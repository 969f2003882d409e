package analysis

import (
	"context"

	"github.com/scamwatch/threatcheck/internal/domain/providers"
)

// DeepScanner port (deep-scan provider adapter)
type DeepScanner interface {
	IsConfigured() bool
	// Scan submits the target, polls until completion and returns the raw
	// report plus the screenshot artifact (may be nil). The observer, if
	// non-nil, is invoked once per poll attempt.
	Scan(ctx context.Context, target string, obs providers.StatusObserver) (*providers.DeepScanReport, []byte, error)
}

// BrowserScanner port (browser-automation provider adapter)
type BrowserScanner interface {
	IsConfigured() bool
	Scan(ctx context.Context, target string) (*providers.BrowserReport, error)
}

// Repository port for the analysis history store
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, tenant string, id AnalysisID) (*Record, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Record, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int) (PaginatedRecords, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (LevelSummary, error)
}

// StageErrorRepository port for persisting fallback-stage failures
type StageErrorRepository interface {
	Save(ctx context.Context, e *StageError) error
	ListByAnalysis(ctx context.Context, tenant string, analysisID string, limit int) ([]*StageError, error)
}

// ArtifactStore port for screenshot storage
type ArtifactStore interface {
	PutScreenshot(ctx context.Context, key string, png []byte) (string, error)
}

// PaginatedRecords is a page of history records with paging metadata
type PaginatedRecords struct {
	Data       []*Record `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
