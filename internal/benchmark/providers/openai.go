// Package providers holds one benchmark.Provider adapter per candidate LLM
// backend. Every adapter sends the production estimation prompt and runs the
// production parse/validate pipeline on the answer, so the scores reflect
// what the app would actually accept from each provider.
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

// https://openai.com/api/pricing/ (as of Jan 2025)
const (
	openAICostPerInputToken  = 0.15 / 1_000_000
	openAICostPerOutputToken = 0.60 / 1_000_000
)

// OpenAIProvider benchmarks gpt-4o-mini via the chat completions API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAI benchmark adapter
func NewOpenAIProvider(apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found, set OPENAI_API_KEY")
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      "gpt-4o-mini",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (p *OpenAIProvider) Name() string                { return "OpenAI" }
func (p *OpenAIProvider) Model() string               { return p.model }
func (p *OpenAIProvider) CostPerInputToken() float64  { return openAICostPerInputToken }
func (p *OpenAIProvider) CostPerOutputToken() float64 { return openAICostPerOutputToken }

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Estimate runs one meal description through gpt-4o-mini.
func (p *OpenAIProvider) Estimate(ctx context.Context, description string) (*benchmark.ProviderResponse, error) {
	reqBody := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "system", Content: "You are a helpful nutrition expert. Always respond with valid JSON only."},
			{Role: "user", Content: usecase.BuildEstimationPrompt(description, 20, 40)},
		},
		Temperature: 0.3,
	}
	reqBody.ResponseFormat.Type = "json_object"

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAI response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI response has no choices")
	}

	raw, err := usecase.ParseEstimate(apiResp.Choices[0].Message.Content)
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
		InputTokens:  apiResp.Usage.PromptTokens,
		OutputTokens: apiResp.Usage.CompletionTokens,
	}, nil
}
