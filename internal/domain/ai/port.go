package ai

import (
	"context"

	"github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

// AdvisoryRequest carries everything the generator may ground an advisory on.
type AdvisoryRequest struct {
	Disease    string
	Confidence float64
	Plant      string
	Treatments []treatment.Group
}

// Client is the generative-text port. Each call is a single attempt; callers
// decide whether a failure degrades or aborts.
type Client interface {
	IdentifyFromText(ctx context.Context, description string) (*analysis.Recognition, error)
	DiseaseAdvisory(ctx context.Context, req AdvisoryRequest) (string, error)
	CareInstructions(ctx context.Context, plant string) (string, error)
}
