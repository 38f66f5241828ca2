package analysis

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
)

// Names longer than this are treated as already-composed sentences coming
// from the vendor, not bare names worth translating.
const maxBareNameLen = 60

// Characters that only occur in Vietnamese text. Presence of any of them
// means the name is already localized.
const vietnameseRunes = "ăâđêôơưàảãáạằẳẵắặầẩẫấậèẻẽéẹềểễếệìỉĩíịòỏõóọồổỗốộờởỡớợùủũúụừửữứựỳỷỹýỵ"

// Markers that show up in knowledge-base phrasing; a name containing one is
// assumed localized even without diacritics.
var localizedMarkers = []string{"bệnh", "cây", "nấm", "vi khuẩn", "sâu"}

// NeedsTranslation is the default needs-translation predicate. It is a
// pragmatic heuristic; swap Formatter.Needs for a more principled locale
// detector without touching the pipeline.
func NeedsTranslation(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if utf8.RuneCountInString(name) > maxBareNameLen {
		return false
	}
	lower := strings.ToLower(name)
	if strings.ContainsAny(lower, vietnameseRunes) {
		return false
	}
	for _, m := range localizedMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}

// Formatter normalizes recognition names to the display locale. Translation
// is an enrichment: any single-name failure keeps the vendor name and the
// run continues.
type Formatter struct {
	Translator domain.Translator
	Needs      func(string) bool
	Timeout    time.Duration
	Logger     *zap.Logger
}

func NewFormatter(tr domain.Translator, timeout time.Duration, log *zap.Logger) *Formatter {
	return &Formatter{Translator: tr, Needs: NeedsTranslation, Timeout: timeout, Logger: log}
}

// Localize fills localized display names in place and returns one warning
// per name that could not be translated. Running it twice is a no-op: the
// second pass sees localized names and short-circuits.
func (f *Formatter) Localize(ctx context.Context, rec *domain.Recognition) []string {
	var warnings []string

	if rec.Plant != nil {
		rec.Plant.CommonName, warnings = f.localizeName(ctx, rec.Plant.CommonName, warnings)
	}
	for i := range rec.Diseases {
		d := &rec.Diseases[i]
		if d.OriginalName == "" {
			d.OriginalName = d.Name
		}
		d.Name, warnings = f.localizeName(ctx, d.Name, warnings)
	}
	return warnings
}

func (f *Formatter) localizeName(ctx context.Context, name string, warnings []string) (string, []string) {
	needs := f.Needs
	if needs == nil {
		needs = NeedsTranslation
	}
	if !needs(name) {
		return name, warnings
	}

	tctx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	translated, err := f.Translator.Translate(tctx, name)
	if err != nil || strings.TrimSpace(translated) == "" {
		f.Logger.Warn("translation failed, keeping vendor name",
			zap.String("name", name), zap.Error(err))
		return name, append(warnings, "translation failed: "+name)
	}
	return translated, warnings
}
