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

// https://www.anthropic.com/pricing (as of Jan 2025)
const (
	anthropicCostPerInputToken  = 0.25 / 1_000_000
	anthropicCostPerOutputToken = 1.25 / 1_000_000
)

// AnthropicProvider benchmarks claude-3-haiku via the messages API.
type AnthropicProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicProvider creates an Anthropic benchmark adapter
func NewAnthropicProvider(apiKey string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key not found, set ANTHROPIC_API_KEY")
	}
	return &AnthropicProvider{
		apiKey:     apiKey,
		model:      "claude-3-haiku-20240307",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (p *AnthropicProvider) Name() string                { return "Anthropic" }
func (p *AnthropicProvider) Model() string               { return p.model }
func (p *AnthropicProvider) CostPerInputToken() float64  { return anthropicCostPerInputToken }
func (p *AnthropicProvider) CostPerOutputToken() float64 { return anthropicCostPerOutputToken }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Estimate runs one meal description through claude-3-haiku.
func (p *AnthropicProvider) Estimate(ctx context.Context, description string) (*benchmark.ProviderResponse, error) {
	reqBody := anthropicRequest{
		Model:     p.model,
		MaxTokens: 1024,
		Messages: []anthropicMessage{
			{Role: "user", Content: usecase.BuildEstimationPrompt(description, 20, 40)},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("Anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Anthropic API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode Anthropic response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("Anthropic response has no content")
	}

	raw, err := usecase.ParseEstimate(apiResp.Content[0].Text)
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
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
	}, nil
}
