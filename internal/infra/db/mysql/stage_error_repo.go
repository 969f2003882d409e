package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
)

type StageErrorRepository struct {
	db *sql.DB
}

func NewStageErrorRepository(db *sql.DB) *StageErrorRepository {
	return &StageErrorRepository{db: db}
}

func (r *StageErrorRepository) Save(ctx context.Context, e *domain.StageError) error {
	const q = `
INSERT INTO analysis_stage_errors
  (tenant_id, analysis_id, stage, message, created_at)
VALUES (?,?,?,?,?)
`
	tenant := stringOrDash(e.TenantID)
	analysis := stringOrDash(e.AnalysisID)
	stage := stringOrDash(e.Stage)
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, tenant, analysis, stage, msg, created)
	return err
}

func (r *StageErrorRepository) ListByAnalysis(ctx context.Context, tenant string, analysisID string, limit int) ([]*domain.StageError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, analysis_id, stage, message, created_at
FROM analysis_stage_errors
WHERE tenant_id = ? AND analysis_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.StageError
	for rows.Next() {
		var e domain.StageError
		if err := rows.Scan(&e.ID, &e.TenantID, &e.AnalysisID, &e.Stage, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
