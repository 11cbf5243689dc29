package benchmark

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mealtrack/backend/internal/usecase"
)

// ItemsFromRaw converts parsed-but-unvalidated items into benchmark items.
// Numbers are coerced, but a missing required field is an error. Defaulting
// it to zero would silently reward a broken provider integration with a
// plausible-looking score.
func ItemsFromRaw(raw []usecase.RawEstimatedItem) ([]EstimatedItem, error) {
	validator := usecase.NewValidator(usecase.TolerancePolicy{})
	validated, err := validator.ValidateAndReconcile(raw)
	if err != nil {
		return nil, err
	}

	items := make([]EstimatedItem, 0, len(validated))
	for _, v := range validated {
		items = append(items, EstimatedItem{
			Name:            v.Name,
			Quantity:        v.Quantity,
			Unit:            v.Unit,
			CaloriesMin:     v.Current.CaloriesMin,
			CaloriesMax:     v.Current.CaloriesMax,
			ProteinGMin:     v.Current.ProteinGMin,
			ProteinGMax:     v.Current.ProteinGMax,
			CarbsGMin:       v.Current.CarbsGMin,
			CarbsGMax:       v.Current.CarbsGMax,
			FatGMin:         v.Current.FatGMin,
			FatGMax:         v.Current.FatGMax,
			AlcoholG:        v.AlcoholG,
			AlcoholCalories: v.AlcoholCalories,
		})
	}
	return items, nil
}

// Runner executes every test case against every provider sequentially.
// Sequential on purpose: parallel calls would skew the latency numbers and
// trip provider rate limits.
type Runner struct {
	providers []Provider
	cases     []TestCase
	delay     time.Duration
}

// NewRunner creates a benchmark runner. A nil case list runs the built-in
// dataset.
func NewRunner(providers []Provider, cases []TestCase) *Runner {
	if cases == nil {
		cases = TestCases
	}
	return &Runner{providers: providers, cases: cases, delay: 500 * time.Millisecond}
}

// Run executes the benchmark and aggregates per-provider summaries.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	results := &Results{
		Timestamp: time.Now().UTC(),
		TestCases: len(r.cases),
	}

	for _, p := range r.providers {
		results.Providers = append(results.Providers, p.Name())
	}

	for _, tc := range r.cases {
		for _, p := range r.providers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			log.Printf("[Benchmark] %s/%s: %q", p.Name(), tc.ID, tc.Description)
			result := r.runOne(ctx, p, tc)
			results.Results = append(results.Results, result)

			if result.Err != "" {
				log.Printf("[Benchmark] %s/%s failed: %s", p.Name(), tc.ID, result.Err)
			} else {
				log.Printf("[Benchmark] %s/%s: overall MAPE %.1f%% in %s",
					p.Name(), tc.ID, result.Metrics.OverallMAPE, result.Latency)
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}

	for _, p := range r.providers {
		results.Summaries = append(results.Summaries, SummarizeProvider(p, results.Results))
	}

	return results, nil
}

func (r *Runner) runOne(ctx context.Context, p Provider, tc TestCase) TestResult {
	result := TestResult{
		TestCaseID:  tc.ID,
		Description: tc.Description,
		Category:    tc.Category,
		Provider:    p.Name(),
		Model:       p.Model(),
		Expected:    tc.Expected,
	}

	resp, err := p.Estimate(ctx, tc.Description)
	if err != nil {
		result.Err = fmt.Sprintf("estimate failed: %v", err)
		result.Metrics = CalculateItemMetrics(tc.Expected, nil)
		return result
	}

	result.Latency = resp.Latency
	result.InputTokens = resp.InputTokens
	result.OutputTokens = resp.OutputTokens
	result.Actual = resp.Items
	result.Metrics = CalculateItemMetrics(tc.Expected, resp.Items)
	return result
}
