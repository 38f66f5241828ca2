package plantid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
)

const healthyTomatoBody = `{
  "result": {
    "is_plant": {"probability": 0.97, "binary": true},
    "is_healthy": {"probability": 0.2, "binary": false},
    "classification": {
      "suggestions": [
        {"name": "Solanum lycopersicum", "probability": 0.9,
         "details": {"common_names": ["Tomato"]}},
        {"name": "Solanum melongena", "probability": 0.05}
      ]
    },
    "disease": {
      "suggestions": [
        {"name": "Leaf spot", "probability": 0.8,
         "details": {"description": "Dark lesions on leaves"}},
        {"name": "Late blight", "probability": 0.4}
      ]
    }
  }
}`

func TestIdentify_NormalizesVendorPayload(t *testing.T) {
	var gotReq identifyRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(healthyTomatoBody))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, 0.7)
	lat, lon := 16.07, 108.22
	rec, err := c.Identify(context.Background(), domain.ImageRef{Data: []byte("img")}, &lat, &lon)

	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotReq.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), gotReq.Images[0])
	assert.Equal(t, "all", gotReq.Health)

	require.NotNil(t, rec.Plant)
	assert.Equal(t, "Tomato", rec.Plant.CommonName)
	assert.Equal(t, "Solanum lycopersicum", rec.Plant.ScientificName)
	assert.True(t, rec.Plant.Reliable)
	assert.False(t, rec.IsHealthy)
	assert.InDelta(t, 0.97, rec.Confidence, 1e-9)

	require.Len(t, rec.Diseases, 2)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].Name)
	assert.Equal(t, "Leaf spot", rec.Diseases[0].OriginalName)
	assert.Equal(t, "Dark lesions on leaves", rec.Diseases[0].Description)
	assert.Equal(t, "Late blight", rec.Diseases[1].Name)
}

func TestIdentify_URLPreferredOverBytes(t *testing.T) {
	var gotReq identifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"result":{"is_plant":{"binary":false}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, 0.7)
	_, err := c.Identify(context.Background(),
		domain.ImageRef{Data: []byte("ignored"), URL: "http://cdn/img.jpg"}, nil, nil)

	require.NoError(t, err)
	require.Len(t, gotReq.Images, 1)
	assert.Equal(t, "http://cdn/img.jpg", gotReq.Images[0])
}

func TestIdentify_NoPlantIsValidAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"is_plant":{"probability":0.1,"binary":false}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, 0.7)
	rec, err := c.Identify(context.Background(), domain.ImageRef{Data: []byte("img")}, nil, nil)

	require.NoError(t, err)
	assert.Nil(t, rec.Plant)
	assert.Empty(t, rec.Diseases)
	assert.InDelta(t, 0.1, rec.Confidence, 1e-9)
}

func TestIdentify_LowConfidenceNotReliable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{
			"is_plant":{"probability":0.8,"binary":true},
			"classification":{"suggestions":[{"name":"Ficus","probability":0.5}]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, 0.7)
	rec, err := c.Identify(context.Background(), domain.ImageRef{Data: []byte("img")}, nil, nil)

	require.NoError(t, err)
	require.NotNil(t, rec.Plant)
	assert.False(t, rec.Plant.Reliable)
	// no common_names detail falls back to the classification name
	assert.Equal(t, "Ficus", rec.Plant.CommonName)
}

func TestIdentify_VendorErrorsAreHardFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"garbage payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, "k", time.Second, 0.7)
			_, err := c.Identify(context.Background(), domain.ImageRef{Data: []byte("img")}, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestCheckPlant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"is_plant":{"probability":0.93,"binary":true}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, 0.7)
	isPlant, prob, err := c.CheckPlant(context.Background(), domain.ImageRef{Data: []byte("img")})

	require.NoError(t, err)
	assert.True(t, isPlant)
	assert.InDelta(t, 0.93, prob, 1e-9)
}
