package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save insert/update analysis record
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analyses
(id, tenant_id, created_at, input_type, target, threat_level,
 confidence, threat_score, source, result_json, screenshot_url, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 threat_level=VALUES(threat_level),
 confidence=VALUES(confidence), threat_score=VALUES(threat_score),
 source=VALUES(source), result_json=VALUES(result_json),
 screenshot_url=VALUES(screenshot_url), duration_ms=VALUES(duration_ms);
`
	tenant := stringOrDash(rec.TenantID)
	level := stringOrDash(string(rec.ThreatLevel))
	source := stringOrDash(string(rec.Source))
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, tenant, created, rec.InputType, rec.Target, level,
		rec.Confidence, rec.ThreatScore, source,
		rec.ResultJSON, rec.ScreenshotURL, rec.DurationMS,
	)
	return err
}

// Get by ID + Tenant
func (r *HistoryRepository) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Record, error) {
	const q = `
SELECT id, tenant_id, created_at, input_type, target, threat_level,
       confidence, threat_score, source, result_json, screenshot_url, duration_ms
FROM analyses
WHERE tenant_id=? AND id=? LIMIT 1;
`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, tenant, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// Latest analyses per tenant
func (r *HistoryRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, created_at, input_type, target, threat_level,
       confidence, threat_score, source, result_json, screenshot_url, duration_ms
FROM analyses
WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Paginate with offset + limit (classic pagination)
func (r *HistoryRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedRecords, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, created_at, input_type, target, threat_level,
       confidence, threat_score, source, result_json, screenshot_url, duration_ms
FROM analyses
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return domain.PaginatedRecords{}, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	recs, err := collectRecords(rows)
	if err != nil {
		return domain.PaginatedRecords{}, fmt.Errorf("scanning rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analyses WHERE tenant_id = ?", tenant).Scan(&total); err != nil {
		return domain.PaginatedRecords{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedRecords{
		Data:       recs,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Summary counts verdicts since N days
func (r *HistoryRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.LevelSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total_analyses,
       COALESCE(SUM(threat_level='dangerous'),0)  AS dangerous,
       COALESCE(SUM(threat_level='suspicious'),0) AS suspicious,
       COALESCE(SUM(threat_level='safe'),0)       AS safe
FROM analyses
WHERE tenant_id=? AND created_at >= ?;
`
	var s domain.LevelSummary
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(
		&s.Total, &s.Dangerous, &s.Suspicious, &s.Safe); err != nil {
		return domain.LevelSummary{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.CreatedAt, &rec.InputType, &rec.Target, &rec.ThreatLevel,
		&rec.Confidence, &rec.ThreatScore, &rec.Source,
		&rec.ResultJSON, &rec.ScreenshotURL, &rec.DurationMS,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*domain.Record, error) {
	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
