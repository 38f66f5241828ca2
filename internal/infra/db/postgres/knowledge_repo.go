package postgres

import (
	"context"
	"database/sql"
)

type KnowledgeRepository struct{ db *sql.DB }

func NewKnowledgeRepository(db *sql.DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

func (r *KnowledgeRepository) ChemicalProducts(ctx context.Context, disease, plant string) ([]string, error) {
	const q = `
SELECT product_name FROM chemical_products
WHERE disease_name=$1 AND (plant_name=$2 OR plant_name IS NULL)
ORDER BY priority, product_name;`
	return r.queryNames(ctx, q, disease, plant)
}

func (r *KnowledgeRepository) BiologicalMethods(ctx context.Context, disease string) ([]string, error) {
	const q = `
SELECT method FROM biological_methods
WHERE disease_name=$1
ORDER BY priority, method;`
	return r.queryNames(ctx, q, disease)
}

func (r *KnowledgeRepository) CulturalPractices(ctx context.Context, plant string) ([]string, error) {
	const q = `
SELECT practice FROM cultural_practices
WHERE plant_name=$1
ORDER BY priority, practice;`
	return r.queryNames(ctx, q, plant)
}

func (r *KnowledgeRepository) queryNames(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
