package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the unofficial single-phrase translate endpoint. Failures are
// expected to be swallowed by the caller; this is an enrichment service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	targetLang string
}

func New(baseURL, targetLang string, timeout time.Duration) *Client {
	if targetLang == "" {
		targetLang = "vi"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		targetLang: targetLang,
	}
}

// Translate returns text in the target language. The endpoint answers with a
// nested array; the translated string sits at [0][0][0].
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", c.targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate service returned status %d", resp.StatusCode)
	}

	var raw []any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("translate payload unusable: %w", err)
	}
	return firstTranslation(raw)
}

func firstTranslation(raw []any) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty translate payload")
	}
	sentences, ok := raw[0].([]any)
	if !ok || len(sentences) == 0 {
		return "", fmt.Errorf("unexpected translate payload shape")
	}

	// Long inputs come back split into sentences; join them.
	var b strings.Builder
	for _, s := range sentences {
		parts, ok := s.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if piece, ok := parts[0].(string); ok {
			b.WriteString(piece)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("no translation in payload")
	}
	return out, nil
}
