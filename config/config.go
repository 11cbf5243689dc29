package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Gemini     GeminiConfig
	Storage    StorageConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Estimation EstimationConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// StorageConfig holds the SQLite storage configuration
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"`
	Gemini int `mapstructure:"gemini"`
}

// EstimationConfig tunes the estimation pipeline. The tolerance settings
// decide when a reported calorie range is corrected in place versus rejected;
// the range percentages size the min/max spread the model is asked for.
type EstimationConfig struct {
	ToleranceRatio   float64 `mapstructure:"tolerance_ratio"`
	FoodFloorCals    float64 `mapstructure:"food_floor_cals"`
	AlcoholFloorCals float64 `mapstructure:"alcohol_floor_cals"`
	SpecificRangePct int     `mapstructure:"specific_range_pct"`
	VagueRangePct    int     `mapstructure:"vague_range_pct"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealtrack/")

	// Environment variable settings
	v.SetEnvPrefix("MEALTRACK")
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Gemini defaults
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")

	// Storage defaults
	v.SetDefault("storage.path", "mealtrack.db")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.gemini", 60)

	// Estimation defaults
	v.SetDefault("estimation.tolerance_ratio", 0.5)
	v.SetDefault("estimation.food_floor_cals", 15)
	v.SetDefault("estimation.alcohol_floor_cals", 10)
	v.SetDefault("estimation.specific_range_pct", 20)
	v.SetDefault("estimation.vague_range_pct", 40)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set MEALTRACK_GEMINI_API_KEY)")
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if config.Estimation.ToleranceRatio <= 0 || config.Estimation.ToleranceRatio >= 1 {
		return fmt.Errorf("tolerance ratio must be in (0, 1), got: %g", config.Estimation.ToleranceRatio)
	}

	if config.Estimation.SpecificRangePct <= 0 || config.Estimation.VagueRangePct <= 0 {
		return fmt.Errorf("range percentages must be positive")
	}

	return nil
}
