// Command benchmark runs the estimation accuracy benchmark against one or
// more LLM providers and writes a raw JSON dump plus a markdown summary.
//
// API keys come from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY,
// GOOGLE_API_KEY), optionally loaded from a .env file.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mealtrack/backend/internal/benchmark"
	"github.com/mealtrack/backend/internal/benchmark/providers"
)

var (
	providerNames []string
	googleModel   string
	categories    []string
	outDir        string
)

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Benchmark meal-estimation accuracy across LLM providers",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringSliceVar(&providerNames, "providers", []string{"google"},
		"Providers to benchmark (openai, anthropic, google)")
	rootCmd.Flags().StringVar(&googleModel, "google-model", "",
		"Google model to benchmark (default gemini-2.0-flash)")
	rootCmd.Flags().StringSliceVar(&categories, "categories", nil,
		"Only run test cases from these categories (simple, quantity, spanish, multi-item, vague, alcohol)")
	rootCmd.Flags().StringVar(&outDir, "out", "benchmark-results",
		"Directory for raw result dumps")
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	selected, err := buildProviders()
	if err != nil {
		return err
	}

	cases := benchmark.TestCases
	if len(categories) > 0 {
		cases = nil
		for _, category := range categories {
			cases = append(cases, benchmark.TestCasesByCategory(category)...)
		}
		if len(cases) == 0 {
			return fmt.Errorf("no test cases match categories %v", categories)
		}
	}

	runner := benchmark.NewRunner(selected, cases)
	results, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	path, err := benchmark.SaveRawResults(results, outDir)
	if err != nil {
		return err
	}
	log.Printf("raw results written to %s", path)

	fmt.Println(benchmark.SummaryReport(results))
	return nil
}

func buildProviders() ([]benchmark.Provider, error) {
	var out []benchmark.Provider
	for _, name := range providerNames {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "openai":
			p, err := providers.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"))
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "anthropic":
			p, err := providers.NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY"))
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "google":
			p, err := providers.NewGoogleProvider(os.Getenv("GOOGLE_API_KEY"), googleModel)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	return out, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
