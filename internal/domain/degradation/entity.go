package degradation

import "time"

// Record represents a persisted enrichment degradation: a translation,
// treatment-source, advisory or persistence failure that was absorbed
// instead of failing the request.
type Record struct {
	ID         int64     `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	Stage      string    `json:"stage"` // translation | treatment | advisory | care | storage
	Subject    string    `json:"subject,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
