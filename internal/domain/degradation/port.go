package degradation

import "context"

// Repository defines persistence for degradation records
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*Record, error)
}
