// Package benchmark compares candidate LLM providers on a fixed set of meal
// descriptions, scoring each with Mean Absolute Percentage Error against
// hand-labeled expected macros. Lower MAPE means a more accurate provider.
package benchmark

import (
	"context"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

// Range is an expected min/max band for one nutrition channel.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ExpectedItem is one hand-labeled food item of a test case.
type ExpectedItem struct {
	Name     string          `json:"name"`
	Quantity float64         `json:"quantity"`
	Unit     domain.MealUnit `json:"unit"`
	Calories Range           `json:"calories"`
	ProteinG Range           `json:"protein_g"`
	CarbsG   Range           `json:"carbs_g"`
	FatG     Range           `json:"fat_g"`
	AlcoholG float64         `json:"alcohol_g,omitempty"`
}

// TestCase is one benchmark input with its expected output.
type TestCase struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // simple, multi-item, spanish, vague, quantity, alcohol
	Expected    []ExpectedItem `json:"expected"`
}

// EstimatedItem is a provider's answer for one food item. Only the
// current-quantity values are scored.
type EstimatedItem struct {
	Name            string          `json:"name"`
	Quantity        float64         `json:"quantity"`
	Unit            domain.MealUnit `json:"unit"`
	CaloriesMin     float64         `json:"calories_min"`
	CaloriesMax     float64         `json:"calories_max"`
	ProteinGMin     float64         `json:"protein_g_min"`
	ProteinGMax     float64         `json:"protein_g_max"`
	CarbsGMin       float64         `json:"carbs_g_min"`
	CarbsGMax       float64         `json:"carbs_g_max"`
	FatGMin         float64         `json:"fat_g_min"`
	FatGMax         float64         `json:"fat_g_max"`
	AlcoholG        float64         `json:"alcohol_g"`
	AlcoholCalories float64         `json:"alcohol_calories"`
}

// ProviderResponse is one provider call's result with its cost accounting.
type ProviderResponse struct {
	Items        []EstimatedItem `json:"items"`
	Latency      time.Duration   `json:"latency_ms"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
}

// Provider is the capability a candidate LLM backend must expose to be
// benchmarked. The harness depends only on this interface.
type Provider interface {
	Name() string
	Model() string
	CostPerInputToken() float64
	CostPerOutputToken() float64
	Estimate(ctx context.Context, description string) (*ProviderResponse, error)
}

// Metrics are the per-test accuracy numbers.
type Metrics struct {
	ItemCountMatch bool    `json:"item_count_match"`
	CaloriesMAPE   float64 `json:"calories_mape"`
	ProteinMAPE    float64 `json:"protein_mape"`
	CarbsMAPE      float64 `json:"carbs_mape"`
	FatMAPE        float64 `json:"fat_mape"`
	OverallMAPE    float64 `json:"overall_mape"`
}

// TestResult is one (test case, provider) outcome.
type TestResult struct {
	TestCaseID   string          `json:"test_case_id"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	Latency      time.Duration   `json:"latency_ms"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Expected     []ExpectedItem  `json:"expected_items"`
	Actual       []EstimatedItem `json:"actual_items"`
	Metrics      Metrics         `json:"metrics"`
	Err          string          `json:"error,omitempty"`
}

// ProviderSummary aggregates every result of one provider.
type ProviderSummary struct {
	Provider          string        `json:"provider"`
	Model             string        `json:"model"`
	TotalTests        int           `json:"total_tests"`
	SuccessfulTests   int           `json:"successful_tests"`
	AvgLatency        time.Duration `json:"avg_latency_ms"`
	AvgCaloriesMAPE   float64       `json:"avg_calories_mape"`
	AvgProteinMAPE    float64       `json:"avg_protein_mape"`
	AvgCarbsMAPE      float64       `json:"avg_carbs_mape"`
	AvgFatMAPE        float64       `json:"avg_fat_mape"`
	AvgOverallMAPE    float64       `json:"avg_overall_mape"`
	TotalCost         float64       `json:"total_cost"`
	CostPer1000Calls  float64       `json:"cost_per_1000_calls"`
	ItemCountAccuracy float64       `json:"item_count_accuracy"`
}

// Results is a complete benchmark run.
type Results struct {
	Timestamp time.Time         `json:"timestamp"`
	TestCases int               `json:"test_cases"`
	Providers []string          `json:"providers"`
	Results   []TestResult      `json:"results"`
	Summaries []ProviderSummary `json:"summaries"`
}
