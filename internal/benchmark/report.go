package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SaveRawResults writes the full run as JSON under dir and returns the path.
func SaveRawResults(results *Results, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	filename := fmt.Sprintf("results-%s.json", results.Timestamp.Format("2006-01-02T15-04-05"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

// SummaryReport renders the run as a markdown document: an overall table
// sorted by accuracy, a per-macro accuracy table, and per-category notes.
func SummaryReport(results *Results) string {
	var b strings.Builder

	b.WriteString("# LLM Provider Benchmark Results\n\n")
	fmt.Fprintf(&b, "**Date:** %s\n", results.Timestamp.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "**Test Cases:** %d\n", results.TestCases)
	fmt.Fprintf(&b, "**Providers:** %s\n\n", strings.Join(results.Providers, ", "))

	sorted := make([]ProviderSummary, len(results.Summaries))
	copy(sorted, results.Summaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AvgOverallMAPE < sorted[j].AvgOverallMAPE })

	b.WriteString("## Summary\n\n")
	b.WriteString("| Provider | Model | Accuracy (MAPE) | Avg Latency | Cost/1000 calls | Success Rate | Item Accuracy |\n")
	b.WriteString("|----------|-------|-----------------|-------------|-----------------|--------------|---------------|\n")
	for _, s := range sorted {
		fmt.Fprintf(&b, "| %s | %s | %.1f%% | %dms | $%.2f | %d/%d | %.1f%% |\n",
			s.Provider, s.Model, s.AvgOverallMAPE, s.AvgLatency.Milliseconds(),
			s.CostPer1000Calls, s.SuccessfulTests, s.TotalTests, s.ItemCountAccuracy)
	}
	b.WriteString("\n")

	b.WriteString("## Accuracy by Macro Type\n\n")
	b.WriteString("| Provider | Calories MAPE | Protein MAPE | Carbs MAPE | Fat MAPE |\n")
	b.WriteString("|----------|---------------|--------------|------------|----------|\n")
	for _, s := range sorted {
		fmt.Fprintf(&b, "| %s | %.1f%% | %.1f%% | %.1f%% | %.1f%% |\n",
			s.Provider, s.AvgCaloriesMAPE, s.AvgProteinMAPE, s.AvgCarbsMAPE, s.AvgFatMAPE)
	}
	b.WriteString("\n")

	b.WriteString("## Failures\n\n")
	failures := 0
	for _, r := range results.Results {
		if r.Err != "" {
			fmt.Fprintf(&b, "- %s / %s (%q): %s\n", r.Provider, r.TestCaseID, r.Description, r.Err)
			failures++
		}
	}
	if failures == 0 {
		b.WriteString("None.\n")
	}

	return b.String()
}
