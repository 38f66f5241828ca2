package analysis

import (
	"time"

	"github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

// ID tipe untuk Analysis
type AnalysisID string

// Request is the validated input for one analysis run.
// Exactly one of Image/ImageURL/Text carries the subject; UserID may be empty
// (anonymous analysis is allowed).
type Request struct {
	Image     []byte
	ImageName string
	ImageURL  string
	Text      string
	UserID    string
	Latitude  *float64
	Longitude *float64
}

// HasImage reports whether the request carries any image input.
func (r Request) HasImage() bool {
	return len(r.Image) > 0 || r.ImageURL != ""
}

// Plant is the identified plant. Immutable once produced.
type Plant struct {
	CommonName     string  `json:"commonName"`
	ScientificName string  `json:"scientificName"`
	Confidence     float64 `json:"confidence"`
	Reliable       bool    `json:"reliable"`
}

// Disease as reported by the vendor, with the display name localized.
// Name is what the user sees; OriginalName is the raw vendor name.
type Disease struct {
	Name         string  `json:"name"`
	OriginalName string  `json:"originalName"`
	Confidence   float64 `json:"confidence"`
	Description  string  `json:"description,omitempty"`
}

// Recognition is the canonical output of the recognition gateway.
// Plant == nil means the vendor answered but found no plant; that is a valid
// outcome, not an error.
type Recognition struct {
	Plant      *Plant
	Diseases   []Disease
	IsHealthy  bool
	Confidence float64
}

// Aggregate Root: Result is the unit returned to the caller and written to
// the store. TreatmentsByDisease and AdvisoryByDisease are filled entry by
// entry as the per-disease loop advances; an entry, once written, never
// changes. A nil advisory entry means generation was attempted and failed.
type Result struct {
	ID                  AnalysisID                   `json:"id"`
	UserID              string                       `json:"userId,omitempty"`
	ImageURL            string                       `json:"imageUrl,omitempty"`
	InputText           string                       `json:"inputText,omitempty"`
	Plant               *Plant                       `json:"plant"`
	Diseases            []Disease                    `json:"diseases"`
	IsHealthy           bool                         `json:"isHealthy"`
	TreatmentsByDisease map[string][]treatment.Group `json:"treatmentsByDisease"`
	AdvisoryByDisease   map[string]*string           `json:"advisoryByDisease"`
	Care                string                       `json:"care,omitempty"`
	Latitude            *float64                     `json:"latitude,omitempty"`
	Longitude           *float64                     `json:"longitude,omitempty"`
	AnalyzedAt          time.Time                    `json:"analyzedAt"`
}

// ImageCheck is the outcome of the optional pre-check gate.
type ImageCheck struct {
	IsValid    bool    `json:"isValid"`
	IsPlant    bool    `json:"isPlant"`
	Confidence float64 `json:"confidence"`
	Skipped    bool    `json:"skipped"`
}
