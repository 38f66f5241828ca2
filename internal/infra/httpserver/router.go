package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	analysisapp "github.com/medu1122/CAPTONE1-sub002/internal/application/analysis"
	domai "github.com/medu1122/CAPTONE1-sub002/internal/domain/ai"
	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/middleware"
)

// AnalysisService is what the transport needs from the orchestrator.
type AnalysisService interface {
	Analyze(ctx context.Context, req domain.Request, em analysisapp.Emitter) (*domain.Result, error)
	ValidateImage(ctx context.Context, image []byte) (domain.ImageCheck, error)
	Get(ctx context.Context, id domain.AnalysisID) (*domain.Result, error)
	Latest(ctx context.Context, userID string, limit int) ([]*domain.Result, error)
}

type Router struct {
	svc    AnalysisService
	logger *zap.Logger
}

func NewRouter(svc AnalysisService, checkers map[string]middleware.HealthChecker, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := &Router{svc: svc, logger: log}
	mux := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
	}))
	mux.Use(middleware.LoggingMiddleware(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(30, 5))

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/analysis", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleAnalyze))
		rt.Get("/stream", r.handleStream)
		rt.Post("/validate-image", r.wrap(r.handleValidateImage))
		rt.Get("/latest", r.wrap(r.handleLatest))
		rt.Get("/{id}", r.wrap(r.handleGet))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeError(w, err)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{StatusCode: status, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRecognitionFailed):
		return http.StatusBadGateway
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// POST /v1/analysis
// Multipart with an "image" file, or JSON {"text": "...", "latitude": .., "longitude": ..}.
// Returns the composed result as a flat JSON document, no envelope.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	areq, err := parseAnalysisRequest(req)
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	res, err := r.svc.Analyze(req.Context(), areq, analysisapp.Discard)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// POST /v1/analysis/validate-image
func (r *Router) handleValidateImage(w http.ResponseWriter, req *http.Request) error {
	image, _, err := readImageUpload(req)
	if err != nil {
		return err
	}
	check, err := r.svc.ValidateImage(req.Context(), image)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(check)
}

// GET /v1/analysis/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	res, err := r.svc.Get(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /v1/analysis/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.svc.Latest(req.Context(), req.Header.Get("X-User-ID"), limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

func parseAnalysisRequest(req *http.Request) (domain.Request, error) {
	areq := domain.Request{UserID: req.Header.Get("X-User-ID")}

	ct := req.Header.Get("Content-Type")
	if ct != "" && len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		image, name, err := readImageUpload(req)
		if err != nil {
			return areq, err
		}
		areq.Image = image
		areq.ImageName = name
		areq.Latitude = parseCoord(req.FormValue("latitude"))
		areq.Longitude = parseCoord(req.FormValue("longitude"))
		return areq, nil
	}

	var body struct {
		Text      string   `json:"text"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return areq, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	areq.Text = middleware.SanitizeString(body.Text)
	areq.Latitude = body.Latitude
	areq.Longitude = body.Longitude
	return areq, nil
}

func readImageUpload(req *http.Request) ([]byte, string, error) {
	if err := req.ParseMultipartForm(middleware.MaxImageBytes); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	file, header, err := req.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("%w: image file is required", domain.ErrInvalidInput)
	}
	defer file.Close()

	if err := middleware.ValidateImageSize(header.Size); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := middleware.ValidateImageContentType(header.Header.Get("Content-Type")); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	data, err := io.ReadAll(io.LimitReader(file, middleware.MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func parseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
