package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medu1122/CAPTONE1-sub002/internal/application"
	apptreatment "github.com/medu1122/CAPTONE1-sub002/internal/application/treatment"
	domai "github.com/medu1122/CAPTONE1-sub002/internal/domain/ai"
	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/degradation"
	domtreat "github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

// Config carries the orchestrator knobs. All of it is set at construction
// time; there are no module-level toggles.
type Config struct {
	// PrecheckEnabled gates the validate-image endpoint. Off means the gate
	// always answers valid without a vendor call (a cost-control switch).
	PrecheckEnabled bool

	TextMinLen int
	TextMaxLen int

	RecognitionTimeout time.Duration
	AdvisoryTimeout    time.Duration
	PersistTimeout     time.Duration
}

// DefaultConfig mirrors the deployed settings.
func DefaultConfig() Config {
	return Config{
		PrecheckEnabled:    true,
		TextMinLen:         3,
		TextMaxLen:         500,
		RecognitionTimeout: 30 * time.Second,
		AdvisoryTimeout:    30 * time.Second,
		PersistTimeout:     10 * time.Second,
	}
}

// Service drives the whole analysis pipeline for both call shapes. The
// synchronous endpoint passes Discard as the emitter; the streaming endpoint
// passes its SSE writer. Failure policy per stage: recognition is hard,
// everything after it degrades.
type Service struct {
	Recognizer   domain.Recognizer
	AI           domai.Client
	Formatter    *Formatter
	Treatments   *apptreatment.Aggregator
	Repo         domain.Repository
	Images       domain.ImageStore
	Degradations degradation.Repository // optional audit sink
	Clock        application.Clock
	Logger       *zap.Logger
	Cfg          Config
}

// Analyze runs validation → recognition → localization → per-disease
// enrichment → persistence, emitting progress along the way. Only input and
// recognition failures are returned as errors; every other failure is
// absorbed into the result as a missing field.
func (s *Service) Analyze(ctx context.Context, req domain.Request, em Emitter) (*domain.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	emit := newGuardedEmitter(em, s.Logger)
	_ = emit.Emit(Event{Type: EventValidation, Data: map[string]any{
		"message": "Dữ liệu hợp lệ, bắt đầu phân tích",
	}})

	id := domain.AnalysisID(uuid.New().String())
	res := &domain.Result{
		ID:                  id,
		UserID:              req.UserID,
		InputText:           req.Text,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		TreatmentsByDisease: map[string][]domtreat.Group{},
		AdvisoryByDisease:   map[string]*string{},
		AnalyzedAt:          s.Clock.Now(),
	}

	imageRef := s.storeImage(ctx, id, req, res, emit)

	_ = emit.Emit(Event{Type: EventPlantID, Data: map[string]any{
		"message": "Đang nhận diện cây trồng",
	}})
	rec, err := s.recognize(ctx, req, imageRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionFailed, err)
	}

	for _, warn := range s.Formatter.Localize(ctx, rec) {
		s.degrade(id, "translation", "", warn)
	}

	res.Plant = rec.Plant
	res.Diseases = rec.Diseases
	res.IsHealthy = rec.IsHealthy

	if rec.Plant != nil {
		_ = emit.Emit(Event{Type: EventPlantIdentified, Data: map[string]any{"plant": rec.Plant}})
	}
	_ = emit.Emit(Event{Type: EventDiseaseCheck, Data: map[string]any{
		"count":     len(rec.Diseases),
		"isHealthy": rec.IsHealthy,
	}})

	// Diseases run sequentially so a human watching the stream sees one
	// disease finish before the next starts. Concurrency lives only inside
	// each disease's three treatment lookups.
	plantName := ""
	if rec.Plant != nil {
		plantName = rec.Plant.CommonName
	}
	for _, d := range rec.Diseases {
		s.enrichDisease(ctx, id, d, plantName, res, emit)
	}

	if rec.Plant != nil && (rec.IsHealthy || len(rec.Diseases) == 0) {
		s.generateCare(ctx, id, plantName, res, emit)
	}

	_ = emit.Emit(Event{Type: EventSaving, Data: map[string]any{
		"message": "Đang lưu kết quả phân tích",
	}})
	s.persist(ctx, res)

	return res, nil
}

// ValidateImage is the optional pre-check gate. With the toggle off it
// answers valid without spending a vendor call.
func (s *Service) ValidateImage(ctx context.Context, image []byte) (domain.ImageCheck, error) {
	if !s.Cfg.PrecheckEnabled {
		return domain.ImageCheck{IsValid: true, IsPlant: true, Skipped: true}, nil
	}
	if len(image) == 0 {
		return domain.ImageCheck{}, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, s.Cfg.RecognitionTimeout)
	defer cancel()
	isPlant, prob, err := s.Recognizer.CheckPlant(ctx, domain.ImageRef{Data: image})
	if err != nil {
		return domain.ImageCheck{}, fmt.Errorf("%w: %v", domain.ErrRecognitionFailed, err)
	}
	return domain.ImageCheck{IsValid: isPlant, IsPlant: isPlant, Confidence: prob}, nil
}

// Get returns one stored result.
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Result, error) {
	return s.Repo.Get(ctx, id)
}

// Latest returns the most recent stored results, optionally per user.
func (s *Service) Latest(ctx context.Context, userID string, limit int) ([]*domain.Result, error) {
	return s.Repo.Latest(ctx, userID, limit)
}

func (s *Service) validate(req domain.Request) error {
	hasImage := req.HasImage()
	hasText := strings.TrimSpace(req.Text) != ""
	switch {
	case !hasImage && !hasText:
		return fmt.Errorf("%w: either an image or a description is required", domain.ErrInvalidInput)
	case hasImage && hasText:
		return fmt.Errorf("%w: provide an image or a description, not both", domain.ErrInvalidInput)
	case hasText:
		n := utf8.RuneCountInString(strings.TrimSpace(req.Text))
		if n < s.Cfg.TextMinLen || n > s.Cfg.TextMaxLen {
			return fmt.Errorf("%w: description must be %d-%d characters",
				domain.ErrInvalidInput, s.Cfg.TextMinLen, s.Cfg.TextMaxLen)
		}
	}
	return nil
}

// storeImage uploads inline image bytes and returns the vendor-facing image
// reference. Upload failure only loses the stored URL; the vendor still gets
// the raw bytes.
func (s *Service) storeImage(ctx context.Context, id domain.AnalysisID, req domain.Request, res *domain.Result, emit Emitter) domain.ImageRef {
	if len(req.Image) > 0 {
		key := fmt.Sprintf("analyses/%s/%s", id, safeImageName(req.ImageName))
		url, err := s.Images.UploadBytes(ctx, req.Image, key, "image/jpeg")
		if err != nil {
			s.degrade(id, "storage", key, "image upload failed: "+err.Error())
		} else {
			res.ImageURL = url
		}
		_ = emit.Emit(Event{Type: EventUpload, Data: map[string]any{"imageUrl": res.ImageURL}})
		return domain.ImageRef{Data: req.Image}
	}
	if req.ImageURL != "" {
		res.ImageURL = req.ImageURL
		_ = emit.Emit(Event{Type: EventUpload, Data: map[string]any{"imageUrl": req.ImageURL}})
		return domain.ImageRef{URL: req.ImageURL}
	}
	return domain.ImageRef{}
}

func (s *Service) recognize(ctx context.Context, req domain.Request, ref domain.ImageRef) (*domain.Recognition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Cfg.RecognitionTimeout)
	defer cancel()

	var rec *domain.Recognition
	var err error
	if req.HasImage() {
		rec, err = s.Recognizer.Identify(ctx, ref, req.Latitude, req.Longitude)
	} else {
		rec, err = s.AI.IdentifyFromText(ctx, req.Text)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("recognizer returned no payload")
	}
	return rec, nil
}

// enrichDisease runs one disease's sub-pipeline: announce, aggregate
// treatments (emitting each group as its own lookup lands), then a single
// advisory attempt.
func (s *Service) enrichDisease(ctx context.Context, id domain.AnalysisID, d domain.Disease, plantName string, res *domain.Result, emit Emitter) {
	_ = emit.Emit(Event{Type: EventDiseaseFound, Data: map[string]any{"disease": d}})

	groups := s.Treatments.Aggregate(ctx, d.Name, plantName, func(g domtreat.Group) {
		_ = emit.Emit(Event{Type: kindEvent(g.Kind), Data: map[string]any{
			"disease": d.Name,
			"group":   g,
		}})
	})
	res.TreatmentsByDisease[d.Name] = groups
	_ = emit.Emit(Event{Type: EventTreatments, Data: map[string]any{
		"disease": d.Name,
		"groups":  groups,
	}})

	actx, cancel := context.WithTimeout(ctx, s.Cfg.AdvisoryTimeout)
	defer cancel()
	advice, err := s.AI.DiseaseAdvisory(actx, domai.AdvisoryRequest{
		Disease:    d.Name,
		Confidence: d.Confidence,
		Plant:      plantName,
		Treatments: groups,
	})
	if err != nil {
		// Single attempt, no retry. Null marks "attempted and failed".
		s.degrade(id, "advisory", d.Name, err.Error())
		res.AdvisoryByDisease[d.Name] = nil
	} else {
		res.AdvisoryByDisease[d.Name] = &advice
	}
	_ = emit.Emit(Event{Type: EventAIAdvice, Data: map[string]any{
		"disease": d.Name,
		"advice":  res.AdvisoryByDisease[d.Name],
	}})
}

func (s *Service) generateCare(ctx context.Context, id domain.AnalysisID, plantName string, res *domain.Result, emit Emitter) {
	cctx, cancel := context.WithTimeout(ctx, s.Cfg.AdvisoryTimeout)
	defer cancel()
	care, err := s.AI.CareInstructions(cctx, plantName)
	if err != nil {
		s.degrade(id, "care", plantName, err.Error())
		return
	}
	res.Care = care
	_ = emit.Emit(Event{Type: EventCare, Data: map[string]any{"care": care}})
}

// persist writes the composed result. The write is best-effort: it is
// detached from request cancellation (a closed stream must not cancel work
// already paid for) and its failure never changes the returned value.
func (s *Service) persist(ctx context.Context, res *domain.Result) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Cfg.PersistTimeout)
	defer cancel()
	if err := s.Repo.Save(pctx, res); err != nil {
		s.Logger.Error("result save failed", zap.String("id", string(res.ID)), zap.Error(err))
		s.degrade(res.ID, "storage", "result", err.Error())
	}
}

// degrade logs an absorbed failure and appends it to the audit table when
// one is wired. Audit writes are themselves best-effort.
func (s *Service) degrade(id domain.AnalysisID, stage, subject, msg string) {
	s.Logger.Warn("enrichment degraded",
		zap.String("analysis_id", string(id)),
		zap.String("stage", stage),
		zap.String("subject", subject),
		zap.String("reason", msg))
	if s.Degradations == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.Degradations.Save(ctx, &degradation.Record{
		AnalysisID: string(id),
		Stage:      stage,
		Subject:    subject,
		Message:    msg,
		CreatedAt:  s.Clock.Now(),
	})
}

func kindEvent(k domtreat.Kind) EventType {
	switch k {
	case domtreat.KindChemical:
		return EventTreatmentsChemical
	case domtreat.KindBiological:
		return EventTreatmentsBiological
	default:
		return EventTreatmentsCultural
	}
}

func safeImageName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload.jpg"
	}
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}
