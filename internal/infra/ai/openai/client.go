package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/medu1122/CAPTONE1-sub002/internal/domain/ai"
	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/infra/ai/prompt"
)

const maxTokens = 1024

type Client struct {
	*openai.Client
	Model             string
	ReliableThreshold float64
}

func NewClient(apiKey, model string, reliableThreshold float64) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model, ReliableThreshold: reliableThreshold}
}

// textIdentification mirrors the JSON schema in the identify system prompt.
type textIdentification struct {
	Plant *struct {
		CommonName     string  `json:"commonName"`
		ScientificName string  `json:"scientificName"`
		Confidence     float64 `json:"confidence"`
	} `json:"plant"`
	Diseases []struct {
		Name        string  `json:"name"`
		Confidence  float64 `json:"confidence"`
		Description string  `json:"description"`
	} `json:"diseases"`
	IsHealthy bool `json:"isHealthy"`
}

// IdentifyFromText runs the free-text variant of recognition through the
// generative service and normalizes it into the same canonical shape the
// image vendor produces.
func (c *Client) IdentifyFromText(ctx context.Context, description string) (*domain.Recognition, error) {
	raw, err := c.complete(ctx, prompt.GetIdentifySystemPrompt(), prompt.GetIdentifyUserPrompt(description), true)
	if err != nil {
		return nil, err
	}

	var parsed textIdentification
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("identification payload unusable: %w", err)
	}

	rec := &domain.Recognition{IsHealthy: parsed.IsHealthy}
	if parsed.Plant != nil {
		rec.Plant = &domain.Plant{
			CommonName:     parsed.Plant.CommonName,
			ScientificName: parsed.Plant.ScientificName,
			Confidence:     parsed.Plant.Confidence,
			Reliable:       parsed.Plant.Confidence >= c.ReliableThreshold,
		}
		rec.Confidence = parsed.Plant.Confidence
	}
	for _, d := range parsed.Diseases {
		rec.Diseases = append(rec.Diseases, domain.Disease{
			Name:         d.Name,
			OriginalName: d.Name,
			Confidence:   d.Confidence,
			Description:  d.Description,
		})
	}
	return rec, nil
}

// DiseaseAdvisory makes exactly one generation attempt for one disease.
func (c *Client) DiseaseAdvisory(ctx context.Context, req domai.AdvisoryRequest) (string, error) {
	return c.complete(ctx,
		prompt.GetAdvisorySystemPrompt(),
		prompt.GetAdvisoryUserPrompt(req.Disease, req.Confidence, req.Plant, req.Treatments),
		false)
}

// CareInstructions covers the healthy / no-disease path.
func (c *Client) CareInstructions(ctx context.Context, plant string) (string, error) {
	return c.complete(ctx, prompt.GetCareSystemPrompt(), prompt.GetCareUserPrompt(plant), false)
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", domai.ErrQuotaExceeded
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
