package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mealtrack/backend/internal/benchmark"
	"github.com/mealtrack/backend/internal/usecase"
)

// https://ai.google.dev/pricing (as of Jan 2025). Per-model; conservative
// estimates where the tier is ambiguous.
var googleModelPricing = map[string]struct{ input, output float64 }{
	"gemini-2.0-flash":      {0.10 / 1_000_000, 0.40 / 1_000_000},
	"gemini-2.5-flash":      {0.15 / 1_000_000, 0.60 / 1_000_000},
	"gemini-2.5-flash-lite": {0.075 / 1_000_000, 0.30 / 1_000_000},
}

// GoogleProvider benchmarks a Gemini model via generateContent.
type GoogleProvider struct {
	apiKey     string
	model      string
	input      float64
	output     float64
	httpClient *http.Client
}

// NewGoogleProvider creates a Google benchmark adapter for the given model.
// An empty model defaults to gemini-2.0-flash.
func NewGoogleProvider(apiKey, model string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google API key not found, set GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	pricing, ok := googleModelPricing[model]
	if !ok {
		pricing = googleModelPricing["gemini-2.0-flash"]
	}
	return &GoogleProvider{
		apiKey:     apiKey,
		model:      model,
		input:      pricing.input,
		output:     pricing.output,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (p *GoogleProvider) Name() string                { return "Google-" + p.model }
func (p *GoogleProvider) Model() string               { return p.model }
func (p *GoogleProvider) CostPerInputToken() float64  { return p.input }
func (p *GoogleProvider) CostPerOutputToken() float64 { return p.output }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Estimate runs one meal description through the configured Gemini model.
func (p *GoogleProvider) Estimate(ctx context.Context, description string) (*benchmark.ProviderResponse, error) {
	reqBody := googleRequest{
		Contents: []googleContent{{Parts: []googlePart{{Text: usecase.BuildEstimationPrompt(description, 20, 40)}}}},
	}
	reqBody.GenerationConfig.Temperature = 0.3
	reqBody.GenerationConfig.ResponseMimeType = "application/json"

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		p.model, p.apiKey,
	)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("Google request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp googleResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode Google response: %w", err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("Google response has no content")
	}

	raw, err := usecase.ParseEstimate(apiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	items, err := benchmark.ItemsFromRaw(raw)
	if err != nil {
		return nil, err
	}

	return &benchmark.ProviderResponse{
		Items:        items,
		Latency:      latency,
		InputTokens:  apiResp.UsageMetadata.PromptTokenCount,
		OutputTokens: apiResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}
