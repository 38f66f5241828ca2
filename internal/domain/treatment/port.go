package treatment

import "context"

// Source port: the three independent knowledge-base lookups. Chemical
// products match disease+plant, biological methods match the disease alone,
// cultural practices match the plant alone.
type Source interface {
	ChemicalProducts(ctx context.Context, disease, plant string) ([]string, error)
	BiologicalMethods(ctx context.Context, disease string) ([]string, error)
	CulturalPractices(ctx context.Context, plant string) ([]string, error)
}
