package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Save insert/update analysis record
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analyses
(id, tenant_id, created_at, input_type, target, threat_level,
 confidence, threat_score, source, result_json, screenshot_url, duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,
        $7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
 threat_level = EXCLUDED.threat_level,
 confidence = EXCLUDED.confidence,
 threat_score = EXCLUDED.threat_score,
 source = EXCLUDED.source,
 result_json = EXCLUDED.result_json,
 screenshot_url = EXCLUDED.screenshot_url,
 duration_ms = EXCLUDED.duration_ms;`

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
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
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
WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Paginate with offset + limit
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
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
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
		"SELECT COUNT(*) FROM analyses WHERE tenant_id = $1", tenant).Scan(&total); err != nil {
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
       COUNT(*) FILTER (WHERE threat_level='dangerous')  AS dangerous,
       COUNT(*) FILTER (WHERE threat_level='suspicious') AS suspicious,
       COUNT(*) FILTER (WHERE threat_level='safe')       AS safe
FROM analyses
WHERE tenant_id=$1 AND created_at >= $2;`
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

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
