package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
)

type mapTranslator struct {
	byName map[string]string
	err    error
	calls  int
}

func (m *mapTranslator) Translate(ctx context.Context, text string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.byName[text], nil
}

func TestNeedsTranslation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "empty", in: "", want: false},
		{name: "whitespace only", in: "   ", want: false},
		{name: "english bare name", in: "Leaf spot", want: true},
		{name: "latin binomial", in: "Alternaria solani", want: true},
		{name: "has diacritics", in: "Bệnh đốm lá", want: false},
		{name: "marker without diacritics", in: "benh nam la ca chua sau", want: true},
		{name: "marker word benh with diacritic", in: "bệnh dom la", want: false},
		{name: "contains cay marker", in: "cây cà chua", want: false},
		{name: "long vendor sentence", in: strings.Repeat("fungal lesion on the lower leaves ", 3), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsTranslation(tt.in), "input %q", tt.in)
		})
	}
}

func TestLocalize_TranslatesAndKeepsOriginal(t *testing.T) {
	tr := &mapTranslator{byName: map[string]string{
		"Tomato":    "Cà chua",
		"Leaf spot": "Bệnh đốm lá",
	}}
	f := NewFormatter(tr, time.Second, zap.NewNop())
	rec := &domain.Recognition{
		Plant:    &domain.Plant{CommonName: "Tomato", Confidence: 0.9},
		Diseases: []domain.Disease{{Name: "Leaf spot", Confidence: 0.8}},
	}

	warnings := f.Localize(context.Background(), rec)

	assert.Empty(t, warnings)
	assert.Equal(t, "Cà chua", rec.Plant.CommonName)
	assert.Equal(t, "Bệnh đốm lá", rec.Diseases[0].Name)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].OriginalName)
	assert.Equal(t, 2, tr.calls)
}

func TestLocalize_SecondPassIsNoOp(t *testing.T) {
	tr := &mapTranslator{byName: map[string]string{
		"Tomato":    "Cà chua",
		"Leaf spot": "Bệnh đốm lá",
	}}
	f := NewFormatter(tr, time.Second, zap.NewNop())
	rec := &domain.Recognition{
		Plant:    &domain.Plant{CommonName: "Tomato"},
		Diseases: []domain.Disease{{Name: "Leaf spot"}},
	}

	require.Empty(t, f.Localize(context.Background(), rec))
	callsAfterFirst := tr.calls

	warnings := f.Localize(context.Background(), rec)

	assert.Empty(t, warnings)
	assert.Equal(t, callsAfterFirst, tr.calls, "localized names must not be re-translated")
	assert.Equal(t, "Cà chua", rec.Plant.CommonName)
	assert.Equal(t, "Bệnh đốm lá", rec.Diseases[0].Name)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].OriginalName)
}

func TestLocalize_FailureKeepsVendorName(t *testing.T) {
	tr := &mapTranslator{err: errors.New("quota")}
	f := NewFormatter(tr, time.Second, zap.NewNop())
	rec := &domain.Recognition{
		Plant:    &domain.Plant{CommonName: "Tomato"},
		Diseases: []domain.Disease{{Name: "Leaf spot"}},
	}

	warnings := f.Localize(context.Background(), rec)

	require.Len(t, warnings, 2)
	assert.Equal(t, "Tomato", rec.Plant.CommonName)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].Name)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].OriginalName)
}

func TestLocalize_EmptyTranslationTreatedAsFailure(t *testing.T) {
	tr := &mapTranslator{byName: map[string]string{}} // every lookup yields ""
	f := NewFormatter(tr, time.Second, zap.NewNop())
	rec := &domain.Recognition{Diseases: []domain.Disease{{Name: "Leaf spot"}}}

	warnings := f.Localize(context.Background(), rec)

	require.Len(t, warnings, 1)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].Name)
}

func TestLocalize_CustomPredicate(t *testing.T) {
	tr := &mapTranslator{byName: map[string]string{"Tomato": "Cà chua"}}
	f := NewFormatter(tr, time.Second, zap.NewNop())
	f.Needs = func(string) bool { return false }
	rec := &domain.Recognition{Plant: &domain.Plant{CommonName: "Tomato"}}

	f.Localize(context.Background(), rec)

	assert.Equal(t, "Tomato", rec.Plant.CommonName)
	assert.Equal(t, 0, tr.calls)
}
