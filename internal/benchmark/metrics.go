package benchmark

import (
	"math"
	"time"

	"github.com/mealtrack/backend/internal/usecase"
)

// percentageError compares two ranges by their midpoints. A zero expected
// midpoint scores 0 when the actual midpoint is also zero, otherwise 100.
func percentageError(actualMin, actualMax, expectedMin, expectedMax float64) float64 {
	actualMid := (actualMin + actualMax) / 2
	expectedMid := (expectedMin + expectedMax) / 2

	if expectedMid == 0 {
		if actualMid == 0 {
			return 0
		}
		return 100
	}

	return math.Abs((actualMid-expectedMid)/expectedMid) * 100
}

// CalculateItemMetrics scores an estimated item list against the expected
// one. Items pair positionally, not by name similarity; that keeps results
// comparable with every historical run. Each unmatched item on either side
// contributes a flat 100% error to all four channels.
func CalculateItemMetrics(expected []ExpectedItem, actual []EstimatedItem) Metrics {
	itemCountMatch := len(expected) == len(actual)

	if len(actual) == 0 {
		return Metrics{
			ItemCountMatch: false,
			CaloriesMAPE:   100,
			ProteinMAPE:    100,
			CarbsMAPE:      100,
			FatMAPE:        100,
			OverallMAPE:    100,
		}
	}

	numToCompare := len(expected)
	if len(actual) < numToCompare {
		numToCompare = len(actual)
	}

	var caloriesErrors, proteinErrors, carbsErrors, fatErrors []float64

	for i := 0; i < numToCompare; i++ {
		exp := expected[i]
		act := actual[i]

		// Alcohol calories are additive on both sides of the calorie channel
		actualCalMin := act.CaloriesMin + act.AlcoholCalories
		actualCalMax := act.CaloriesMax + act.AlcoholCalories
		expectedCalMin := exp.Calories.Min + exp.AlcoholG*usecase.CaloriesPerGramAlcohol
		expectedCalMax := exp.Calories.Max + exp.AlcoholG*usecase.CaloriesPerGramAlcohol

		caloriesErrors = append(caloriesErrors, percentageError(actualCalMin, actualCalMax, expectedCalMin, expectedCalMax))
		proteinErrors = append(proteinErrors, percentageError(act.ProteinGMin, act.ProteinGMax, exp.ProteinG.Min, exp.ProteinG.Max))
		carbsErrors = append(carbsErrors, percentageError(act.CarbsGMin, act.CarbsGMax, exp.CarbsG.Min, exp.CarbsG.Max))
		fatErrors = append(fatErrors, percentageError(act.FatGMin, act.FatGMax, exp.FatG.Min, exp.FatG.Max))
	}

	if !itemCountMatch {
		diff := len(expected) - len(actual)
		if diff < 0 {
			diff = -diff
		}
		for i := 0; i < diff; i++ {
			caloriesErrors = append(caloriesErrors, 100)
			proteinErrors = append(proteinErrors, 100)
			carbsErrors = append(carbsErrors, 100)
			fatErrors = append(fatErrors, 100)
		}
	}

	caloriesMAPE := average(caloriesErrors)
	proteinMAPE := average(proteinErrors)
	carbsMAPE := average(carbsErrors)
	fatMAPE := average(fatErrors)

	return Metrics{
		ItemCountMatch: itemCountMatch,
		CaloriesMAPE:   caloriesMAPE,
		ProteinMAPE:    proteinMAPE,
		CarbsMAPE:      carbsMAPE,
		FatMAPE:        fatMAPE,
		OverallMAPE:    (caloriesMAPE + proteinMAPE + carbsMAPE + fatMAPE) / 4,
	}
}

// SummarizeProvider aggregates a provider's results: average latency and
// per-channel MAPE over successful tests, total token cost, and the fraction
// of tests where the item count matched exactly.
func SummarizeProvider(provider Provider, results []TestResult) ProviderSummary {
	var providerResults, successful []TestResult
	for _, r := range results {
		if r.Provider != provider.Name() {
			continue
		}
		providerResults = append(providerResults, r)
		if r.Err == "" {
			successful = append(successful, r)
		}
	}

	summary := ProviderSummary{
		Provider:        provider.Name(),
		Model:           provider.Model(),
		TotalTests:      len(providerResults),
		SuccessfulTests: len(successful),
		AvgCaloriesMAPE: 100,
		AvgProteinMAPE:  100,
		AvgCarbsMAPE:    100,
		AvgFatMAPE:      100,
		AvgOverallMAPE:  100,
	}

	if len(successful) > 0 {
		var latency time.Duration
		var calories, protein, carbs, fat, overall []float64
		matches := 0
		for _, r := range successful {
			latency += r.Latency
			calories = append(calories, r.Metrics.CaloriesMAPE)
			protein = append(protein, r.Metrics.ProteinMAPE)
			carbs = append(carbs, r.Metrics.CarbsMAPE)
			fat = append(fat, r.Metrics.FatMAPE)
			overall = append(overall, r.Metrics.OverallMAPE)
			if r.Metrics.ItemCountMatch {
				matches++
			}
		}
		summary.AvgLatency = latency / time.Duration(len(successful))
		summary.AvgCaloriesMAPE = round1(average(calories))
		summary.AvgProteinMAPE = round1(average(protein))
		summary.AvgCarbsMAPE = round1(average(carbs))
		summary.AvgFatMAPE = round1(average(fat))
		summary.AvgOverallMAPE = round1(average(overall))
		summary.ItemCountAccuracy = round1(float64(matches) / float64(len(successful)) * 100)
	}

	var inputTokens, outputTokens int
	for _, r := range providerResults {
		inputTokens += r.InputTokens
		outputTokens += r.OutputTokens
	}
	totalCost := float64(inputTokens)*provider.CostPerInputToken() + float64(outputTokens)*provider.CostPerOutputToken()
	summary.TotalCost = math.Round(totalCost*100000) / 100000
	if len(providerResults) > 0 {
		summary.CostPer1000Calls = math.Round(totalCost/float64(len(providerResults))*1000*100) / 100
	}

	return summary
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
