package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/degradation"
)

type DegradationRepository struct {
	db *sql.DB
}

func NewDegradationRepository(db *sql.DB) *DegradationRepository {
	return &DegradationRepository{db: db}
}

func (r *DegradationRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analysis_degradations
  (analysis_id, stage, subject, message, created_at)
VALUES (?,?,?,?,?)
`
	msg := rec.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, rec.AnalysisID, rec.Stage, rec.Subject, msg, created)
	return err
}

func (r *DegradationRepository) ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, analysis_id, stage, subject, message, created_at
FROM analysis_degradations
WHERE analysis_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.AnalysisID, &rec.Stage, &rec.Subject, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
