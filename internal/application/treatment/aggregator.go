package treatment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

// Aggregator joins the three independent knowledge-base lookups for one
// (disease, plant) pair. A lookup that errors is treated exactly like one
// that returned nothing: treatment enrichment is best-effort relative to the
// identification result.
type Aggregator struct {
	Source  domain.Source
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewAggregator(src domain.Source, timeout time.Duration, log *zap.Logger) *Aggregator {
	return &Aggregator{Source: src, Timeout: timeout, Logger: log}
}

// Aggregate runs the three lookups concurrently and waits for all of them.
// onGroup, when non-nil, fires the instant a lookup completes with a
// non-empty group, so emission order follows completion order. The returned
// slice is in fixed kind order (chemical, biological, cultural) with empty
// kinds omitted.
func (a *Aggregator) Aggregate(ctx context.Context, disease, plant string, onGroup func(domain.Group)) []domain.Group {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	var mu sync.Mutex
	found := make(map[domain.Kind]domain.Group, 3)

	collect := func(kind domain.Kind, items []string, err error) {
		if err != nil {
			a.Logger.Warn("treatment lookup failed",
				zap.String("kind", string(kind)),
				zap.String("disease", disease),
				zap.Error(err))
			return
		}
		if len(items) == 0 {
			return
		}
		g := domain.Group{Kind: kind, Label: domain.Labels[kind], Items: items}
		mu.Lock()
		found[kind] = g
		mu.Unlock()
		if onGroup != nil {
			onGroup(g)
		}
	}

	// errgroup joins the three lookups; errors are degraded inside collect,
	// never returned, so one failed source cannot cancel the others.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := a.Source.ChemicalProducts(gctx, disease, plant)
		collect(domain.KindChemical, items, err)
		return nil
	})
	g.Go(func() error {
		items, err := a.Source.BiologicalMethods(gctx, disease)
		collect(domain.KindBiological, items, err)
		return nil
	})
	g.Go(func() error {
		items, err := a.Source.CulturalPractices(gctx, plant)
		collect(domain.KindCultural, items, err)
		return nil
	})
	_ = g.Wait()

	ordered := make([]domain.Group, 0, len(found))
	for _, kind := range []domain.Kind{domain.KindChemical, domain.KindBiological, domain.KindCultural} {
		if g, ok := found[kind]; ok {
			ordered = append(ordered, g)
		}
	}
	return ordered
}
