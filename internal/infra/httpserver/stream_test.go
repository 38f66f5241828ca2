package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisapp "github.com/medu1122/CAPTONE1-sub002/internal/application/analysis"
	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
)

func streamRequest(t *testing.T, svc *stubService, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := newTestRouter(svc)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleStream_SuccessfulRun(t *testing.T) {
	svc := &stubService{
		events: []analysisapp.Event{
			{Type: analysisapp.EventValidation, Data: map[string]any{"message": "Dữ liệu hợp lệ"}},
			{Type: analysisapp.EventDiseaseFound, Data: map[string]any{"name": "Bệnh đốm lá"}},
		},
		analyzeRes: &domain.Result{
			ID:    "5d9f1c1e-0000-4000-8000-000000000001",
			Plant: &domain.Plant{CommonName: "Cà chua"},
		},
	}

	w := streamRequest(t, svc, "/v1/analysis/stream?text=l%C3%A1%20c%C3%A0%20chua&latitude=16.07")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	assert.Equal(t, "lá cà chua", svc.gotReq.Text)
	require.NotNil(t, svc.gotReq.Latitude)
	assert.InDelta(t, 16.07, *svc.gotReq.Latitude, 1e-9)

	body := w.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.GreaterOrEqual(t, len(frames), 4)

	// connected first, pipeline frames in emission order, complete last
	assert.True(t, strings.HasPrefix(frames[0], "event: connected\n"), "got %q", frames[0])
	assert.True(t, strings.HasPrefix(frames[1], "event: validation\n"), "got %q", frames[1])
	assert.True(t, strings.HasPrefix(frames[2], "event: disease_found\n"), "got %q", frames[2])
	assert.True(t, strings.HasPrefix(frames[len(frames)-2], "event: complete\n"), "got %q", frames[len(frames)-2])
	assert.Contains(t, frames[len(frames)-2], `"commonName":"Cà chua"`)

	// every frame is event line + data line; the sentinel is data-only
	assert.Equal(t, "data: [DONE]", frames[len(frames)-1])
	for _, f := range frames[:len(frames)-1] {
		lines := strings.Split(f, "\n")
		require.Len(t, lines, 2, "frame %q", f)
		assert.True(t, strings.HasPrefix(lines[0], "event: "))
		assert.True(t, strings.HasPrefix(lines[1], "data: "))
	}
}

func TestHandleStream_ErrorEndsWithSentinel(t *testing.T) {
	svc := &stubService{analyzeErr: domain.ErrInvalidInput}

	w := streamRequest(t, svc, "/v1/analysis/stream")

	body := w.Body.String()
	assert.Contains(t, body, "event: connected\n")
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"code":"400"`)
	assert.NotContains(t, body, "event: complete\n")
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"), "stream must end with the sentinel")
}

func TestHandleStream_RecognitionFailureCode(t *testing.T) {
	svc := &stubService{analyzeErr: domain.ErrRecognitionFailed}

	w := streamRequest(t, svc, "/v1/analysis/stream?image_url=http://cdn/img.jpg")

	assert.Equal(t, "http://cdn/img.jpg", svc.gotReq.ImageURL)
	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"code":"502"`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}
