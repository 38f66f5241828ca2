package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_DecodesNestedArray(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"client": q.Get("client"),
			"sl":     q.Get("sl"),
			"tl":     q.Get("tl"),
			"q":      q.Get("q"),
		}
		w.Write([]byte(`[[["Bệnh đốm lá","Leaf spot",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "vi", time.Second)
	out, err := c.Translate(context.Background(), "Leaf spot")

	require.NoError(t, err)
	assert.Equal(t, "Bệnh đốm lá", out)
	assert.Equal(t, "gtx", gotQuery["client"])
	assert.Equal(t, "auto", gotQuery["sl"])
	assert.Equal(t, "vi", gotQuery["tl"])
	assert.Equal(t, "Leaf spot", gotQuery["q"])
}

func TestTranslate_JoinsSentencePieces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Bệnh đốm lá ","Leaf spot "],["trên cà chua","on tomato"]],null,"en"]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "vi", time.Second)
	out, err := c.Translate(context.Background(), "Leaf spot on tomato")

	require.NoError(t, err)
	assert.Equal(t, "Bệnh đốm lá trên cà chua", out)
}

func TestTranslate_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "non-200", body: "slow down", code: http.StatusTooManyRequests},
		{name: "not json", body: "<html></html>", code: http.StatusOK},
		{name: "empty array", body: "[]", code: http.StatusOK},
		{name: "wrong shape", body: `{"translation":"x"}`, code: http.StatusOK},
		{name: "blank pieces", body: `[[["  ","x"]],null,"en"]`, code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "vi", time.Second)
			_, err := c.Translate(context.Background(), "Leaf spot")
			assert.Error(t, err)
		})
	}
}

func TestNew_DefaultTargetLang(t *testing.T) {
	c := New("http://example", "", time.Second)
	assert.Equal(t, "vi", c.targetLang)
}
