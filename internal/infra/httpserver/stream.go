package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	analysisapp "github.com/medu1122/CAPTONE1-sub002/internal/application/analysis"
	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/middleware"
)

// doneSentinel is the distinguished final frame; it tells the consumer to
// stop listening regardless of how the stream ended.
const doneSentinel = "[DONE]"

// sseWriter frames events as SSE units: an event name line, a JSON data
// line, a blank separator. It is the single writer for one stream; the
// mutex covers emits arriving from the treatment-lookup goroutines.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     interface{ Err() error }
}

func newSSEWriter(w http.ResponseWriter, flusher http.Flusher, req *http.Request) *sseWriter {
	return &sseWriter{w: w, flusher: flusher, ctx: req.Context()}
}

func (s *sseWriter) Emit(ev analysisapp.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		payload = []byte(`{}`)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", doneSentinel)
	s.flusher.Flush()
}

// GET /v1/analysis/stream?text=...&image_url=...&latitude=..&longitude=..
// Pushes the pipeline's progress as SSE and ends with complete/error plus
// the [DONE] sentinel. Input and recognition failures are the only error
// terminals; everything else still ends in complete.
func (r *Router) handleStream(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	middleware.IncrementStreamClients()
	defer middleware.DecrementStreamClients()

	q := req.URL.Query()
	areq := domain.Request{
		Text:      middleware.SanitizeString(q.Get("text")),
		ImageURL:  q.Get("image_url"),
		UserID:    req.Header.Get("X-User-ID"),
		Latitude:  parseCoord(q.Get("latitude")),
		Longitude: parseCoord(q.Get("longitude")),
	}

	stream := newSSEWriter(w, flusher, req)
	_ = stream.Emit(analysisapp.Event{Type: analysisapp.EventConnected, Data: map[string]any{
		"message": "Kết nối thành công",
	}})

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	res, err := r.svc.Analyze(req.Context(), areq, stream)
	middleware.DecrementAnalysesRunning()

	if err != nil {
		middleware.IncrementAnalysesFailed()
		status := statusFor(err)
		_ = stream.Emit(analysisapp.Event{Type: analysisapp.EventError, Data: map[string]any{
			"error": err.Error(),
			"code":  strconv.Itoa(status),
		}})
		stream.done()
		return
	}

	_ = stream.Emit(analysisapp.Event{Type: analysisapp.EventComplete, Data: res})
	stream.done()
}
