package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mealtrack/backend/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultGeminiBaseURL is the production Generative Language API endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Google Generative Language API for meal estimation
// and description embeddings.
type GeminiClient struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	rateLimiter    *rate.Limiter
	debug          bool
}

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(apiKey, baseURL, model string) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}

	// Keep comfortably under the free-tier quota; burst absorbs a screen of
	// quick successive logs
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:         apiKey,
		baseURL:        baseURL,
		model:          model,
		embeddingModel: "text-embedding-004",
		rateLimiter:    limiter,
	}
}

// SetDebug enables verbose request/response logging
func (c *GeminiClient) SetDebug(debug bool) {
	c.debug = debug
}

// SetEmbeddingModel overrides the embedding model
func (c *GeminiClient) SetEmbeddingModel(model string) {
	if model != "" {
		c.embeddingModel = model
	}
}

// SetRequestsPerMinute overrides the client-side rate limit. Values <= 0 keep
// the default. The burst stays at 5 regardless of the rate.
func (c *GeminiClient) SetRequestsPerMinute(perMinute int) {
	if perMinute > 0 {
		c.rateLimiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 5)
	}
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Estimate sends the prompt and returns the model's raw text output.
// Transient failures retry up to 3 times with exponential backoff.
func (c *GeminiClient) Estimate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.3,
			ResponseMimeType: "application/json",
		},
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		start := time.Now()
		body, status, err := c.doPost(ctx, reqURL, reqBody)
		latency := time.Since(start)

		if err != nil {
			log.Printf("[Gemini] request error (attempt %d): %v", attempt, err)
			lastErr = err
			sleepBackoff(ctx, attempt)
			continue
		}

		if status != http.StatusOK {
			log.Printf("[Gemini] API error (attempt %d) - status: %d, body: %s", attempt, status, truncate(string(body), 300))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrLLMFailure, status)
			sleepBackoff(ctx, attempt)
			continue
		}

		var genResp geminiGenerateResponse
		if err := json.Unmarshal(body, &genResp); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}

		if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("%w: no content in response", domain.ErrLLMFailure)
		}

		if c.debug {
			log.Printf("[Gemini] generateContent ok in %s (finish: %s)", latency, genResp.Candidates[0].FinishReason)
		}
		return genResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", lastErr
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding vector for a meal description.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.embeddingModel, c.apiKey)
	reqBody := geminiEmbedRequest{
		Model:   "models/" + c.embeddingModel,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	body, status, err := c.doPost(ctx, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrLLMFailure, status)
	}

	var embResp geminiEmbedResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(embResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrLLMFailure)
	}
	return embResp.Embedding.Values, nil
}

// doPost executes a JSON POST and returns the body and status code.
func (c *GeminiClient) doPost(ctx context.Context, reqURL string, payload interface{}) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MealTrack/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// exponentialBackoff returns the wait before retrying the given attempt:
// 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepBackoff(ctx context.Context, attempt int) {
	select {
	case <-ctx.Done():
	case <-time.After(exponentialBackoff(attempt)):
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
