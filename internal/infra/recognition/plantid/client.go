package plantid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
)

// Client talks to the Plant.id-style health assessment API. Vendor-success
// with no plant is a valid Recognition with a nil Plant; transport or
// non-2xx responses are errors for the orchestrator to treat as hard
// recognition failures.
type Client struct {
	httpClient        *http.Client
	baseURL           string
	apiKey            string
	reliableThreshold float64
}

func New(baseURL, apiKey string, timeout time.Duration, reliableThreshold float64) *Client {
	return &Client{
		httpClient:        &http.Client{Timeout: timeout},
		baseURL:           baseURL,
		apiKey:            apiKey,
		reliableThreshold: reliableThreshold,
	}
}

type identifyRequest struct {
	Images    []string `json:"images"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Health    string   `json:"health"`
}

type identifyResponse struct {
	Result struct {
		IsPlant struct {
			Probability float64 `json:"probability"`
			Binary      bool    `json:"binary"`
		} `json:"is_plant"`
		IsHealthy struct {
			Probability float64 `json:"probability"`
			Binary      bool    `json:"binary"`
		} `json:"is_healthy"`
		Classification struct {
			Suggestions []struct {
				Name        string  `json:"name"`
				Probability float64 `json:"probability"`
				Details     struct {
					CommonNames []string `json:"common_names"`
				} `json:"details"`
			} `json:"suggestions"`
		} `json:"classification"`
		Disease struct {
			Suggestions []struct {
				Name        string  `json:"name"`
				Probability float64 `json:"probability"`
				Details     struct {
					Description string `json:"description"`
				} `json:"details"`
			} `json:"suggestions"`
		} `json:"disease"`
	} `json:"result"`
}

// Identify sends the image for a full health assessment and normalizes the
// vendor payload into the canonical recognition shape. Disease order follows
// vendor emission order.
func (c *Client) Identify(ctx context.Context, ref domain.ImageRef, lat, lon *float64) (*domain.Recognition, error) {
	var out identifyResponse
	if err := c.post(ctx, "/identification?details=common_names,description&health=all", identifyRequest{
		Images:    []string{imagePayload(ref)},
		Latitude:  lat,
		Longitude: lon,
		Health:    "all",
	}, &out); err != nil {
		return nil, err
	}

	rec := &domain.Recognition{
		IsHealthy:  out.Result.IsHealthy.Binary,
		Confidence: out.Result.IsPlant.Probability,
	}

	// No plant detected is a valid vendor answer, not an error.
	if !out.Result.IsPlant.Binary || len(out.Result.Classification.Suggestions) == 0 {
		return rec, nil
	}

	top := out.Result.Classification.Suggestions[0]
	common := top.Name
	if len(top.Details.CommonNames) > 0 {
		common = top.Details.CommonNames[0]
	}
	rec.Plant = &domain.Plant{
		CommonName:     common,
		ScientificName: top.Name,
		Confidence:     top.Probability,
		Reliable:       top.Probability >= c.reliableThreshold,
	}

	for _, d := range out.Result.Disease.Suggestions {
		rec.Diseases = append(rec.Diseases, domain.Disease{
			Name:         d.Name,
			OriginalName: d.Name,
			Confidence:   d.Probability,
			Description:  d.Details.Description,
		})
	}
	return rec, nil
}

// CheckPlant is the cheap gate used by the validate-image endpoint.
func (c *Client) CheckPlant(ctx context.Context, ref domain.ImageRef) (bool, float64, error) {
	var out identifyResponse
	if err := c.post(ctx, "/identification", identifyRequest{
		Images: []string{imagePayload(ref)},
	}, &out); err != nil {
		return false, 0, err
	}
	return out.Result.IsPlant.Binary, out.Result.IsPlant.Probability, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("recognition service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("recognition payload unusable: %w", err)
	}
	return nil
}

// imagePayload prefers a reachable URL; inline bytes go up base64-encoded,
// which the vendor accepts in the same images array.
func imagePayload(ref domain.ImageRef) string {
	if ref.URL != "" {
		return ref.URL
	}
	return base64.StdEncoding.EncodeToString(ref.Data)
}
