package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mealtrack/backend/config"
	httpDelivery "github.com/mealtrack/backend/internal/delivery/http"
	"github.com/mealtrack/backend/internal/infrastructure/cache"
	"github.com/mealtrack/backend/internal/infrastructure/llm"
	"github.com/mealtrack/backend/internal/infrastructure/sqlite"
	"github.com/mealtrack/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting MealTrack Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Storage: %s", cfg.Storage.Path)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	store, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	geminiClient := llm.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model)
	geminiClient.SetEmbeddingModel(cfg.Gemini.EmbeddingModel)
	geminiClient.SetRequestsPerMinute(cfg.RateLimit.Gemini)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		geminiClient.SetDebug(true)
		log.Printf("Gemini client debug mode enabled")
	}
	log.Printf("Gemini model: %s (embeddings: %s)", cfg.Gemini.Model, cfg.Gemini.EmbeddingModel)

	// Initialize usecase layer
	estimationService := usecase.NewEstimationService(
		memoryCache,
		geminiClient,
		usecase.EstimationServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			Tolerance: usecase.TolerancePolicy{
				Ratio:            cfg.Estimation.ToleranceRatio,
				FoodFloorCals:    cfg.Estimation.FoodFloorCals,
				AlcoholFloorCals: cfg.Estimation.AlcoholFloorCals,
			},
			SpecificRangePct: cfg.Estimation.SpecificRangePct,
			VagueRangePct:    cfg.Estimation.VagueRangePct,
		},
	)

	mealRepo := sqlite.NewMealRepository(store)
	settingsRepo := sqlite.NewSettingsRepository(store)

	mealService := usecase.NewMealService(mealRepo, geminiClient)
	settingsService := usecase.NewSettingsService(settingsRepo)
	similarService := usecase.NewSimilarMealService(mealRepo, geminiClient)

	log.Printf("Estimation: tolerance=%.0f%%, range=%d%%/%d%%",
		cfg.Estimation.ToleranceRatio*100,
		cfg.Estimation.SpecificRangePct,
		cfg.Estimation.VagueRangePct)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(estimationService, mealService, settingsService, similarService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
