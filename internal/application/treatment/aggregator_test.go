package treatment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

type stubSource struct {
	chemical    []string
	chemicalErr error
	biological  []string
	bioErr      error
	cultural    []string
	culturalErr error

	// optional gates to force completion order
	chemicalGate chan struct{}
	bioGate      chan struct{}
	culturalGate chan struct{}
}

func wait(gate chan struct{}) {
	if gate != nil {
		<-gate
	}
}

func (s *stubSource) ChemicalProducts(ctx context.Context, disease, plant string) ([]string, error) {
	wait(s.chemicalGate)
	return s.chemical, s.chemicalErr
}

func (s *stubSource) BiologicalMethods(ctx context.Context, disease string) ([]string, error) {
	wait(s.bioGate)
	return s.biological, s.bioErr
}

func (s *stubSource) CulturalPractices(ctx context.Context, plant string) ([]string, error) {
	wait(s.culturalGate)
	return s.cultural, s.culturalErr
}

func TestAggregate_FixedOrderOmitsEmptyKinds(t *testing.T) {
	src := &stubSource{
		chemical: []string{"Mancozeb 80WP", "Chlorothalonil 75WP"},
		cultural: []string{"Luân canh cây trồng"},
	}
	agg := NewAggregator(src, time.Second, zap.NewNop())

	groups := agg.Aggregate(context.Background(), "Bệnh đốm lá", "Cà chua", nil)

	require.Len(t, groups, 2)
	assert.Equal(t, domain.KindChemical, groups[0].Kind)
	assert.Equal(t, domain.Labels[domain.KindChemical], groups[0].Label)
	assert.Equal(t, []string{"Mancozeb 80WP", "Chlorothalonil 75WP"}, groups[0].Items)
	assert.Equal(t, domain.KindCultural, groups[1].Kind)
}

func TestAggregate_ErrorDegradesToEmpty(t *testing.T) {
	src := &stubSource{
		chemicalErr: errors.New("connection reset"),
		biological:  []string{"Trichoderma spp."},
		culturalErr: errors.New("connection reset"),
	}
	agg := NewAggregator(src, time.Second, zap.NewNop())

	groups := agg.Aggregate(context.Background(), "Bệnh đốm lá", "Cà chua", nil)

	require.Len(t, groups, 1)
	assert.Equal(t, domain.KindBiological, groups[0].Kind)
}

func TestAggregate_AllEmptyYieldsNoGroups(t *testing.T) {
	agg := NewAggregator(&stubSource{}, time.Second, zap.NewNop())

	groups := agg.Aggregate(context.Background(), "Bệnh lạ", "Cây lạ", nil)

	assert.Empty(t, groups)
}

// onGroup fires in completion order while the returned slice stays in fixed
// kind order. Gates force cultural to finish first and chemical last.
func TestAggregate_CallbackFollowsCompletionOrder(t *testing.T) {
	src := &stubSource{
		chemical:     []string{"Mancozeb 80WP"},
		biological:   []string{"Trichoderma spp."},
		cultural:     []string{"Tỉa cành thông thoáng"},
		chemicalGate: make(chan struct{}),
		bioGate:      make(chan struct{}),
	}
	agg := NewAggregator(src, time.Second, zap.NewNop())

	var mu sync.Mutex
	var seen []domain.Kind
	onGroup := func(g domain.Group) {
		mu.Lock()
		seen = append(seen, g.Kind)
		mu.Unlock()
		// release the next lookup only after this one has been observed
		switch g.Kind {
		case domain.KindCultural:
			close(src.bioGate)
		case domain.KindBiological:
			close(src.chemicalGate)
		}
	}

	groups := agg.Aggregate(context.Background(), "Bệnh đốm lá", "Cà chua", onGroup)

	assert.Equal(t, []domain.Kind{domain.KindCultural, domain.KindBiological, domain.KindChemical}, seen)
	require.Len(t, groups, 3)
	assert.Equal(t, domain.KindChemical, groups[0].Kind)
	assert.Equal(t, domain.KindBiological, groups[1].Kind)
	assert.Equal(t, domain.KindCultural, groups[2].Kind)
}

func TestAggregate_CallbackSkippedForEmptyKinds(t *testing.T) {
	src := &stubSource{chemical: []string{"Mancozeb 80WP"}}
	agg := NewAggregator(src, time.Second, zap.NewNop())

	var mu sync.Mutex
	var seen []domain.Kind
	agg.Aggregate(context.Background(), "Bệnh đốm lá", "Cà chua", func(g domain.Group) {
		mu.Lock()
		seen = append(seen, g.Kind)
		mu.Unlock()
	})

	assert.Equal(t, []domain.Kind{domain.KindChemical}, seen)
}
