package analysis

import "context"

// Recognizer port (interface untuk vendor image identification)
type Recognizer interface {
	Identify(ctx context.Context, ref ImageRef, lat, lon *float64) (*Recognition, error)
	CheckPlant(ctx context.Context, ref ImageRef) (bool, float64, error)
}

// ImageRef points the vendor at the subject image, either inline bytes or a
// reachable URL. Exactly one side is set.
type ImageRef struct {
	Data []byte
	URL  string
}

// Translator port: single-name translation into the display locale.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, res *Result) error
	Get(ctx context.Context, id AnalysisID) (*Result, error)
	Latest(ctx context.Context, userID string, limit int) ([]*Result, error)
}

// ImageStore port (interface untuk penyimpanan gambar)
type ImageStore interface {
	UploadBytes(ctx context.Context, data []byte, key, contentType string) (string, error)
}
