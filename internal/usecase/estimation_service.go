package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mealtrack/backend/internal/domain"
)

// MaxDescriptionLength bounds a meal description; rejected before any
// external call.
const MaxDescriptionLength = 140

// Package-level compiled regex patterns for performance
var (
	nonWordRegex        = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// EstimationServiceConfig holds configuration for the estimation service
type EstimationServiceConfig struct {
	CacheTTL         time.Duration
	Tolerance        TolerancePolicy
	SpecificRangePct int
	VagueRangePct    int
}

// EstimationService turns a free-text meal description into validated food
// items: cache check -> prompt -> LLM call -> parse -> validate/reconcile.
type EstimationService struct {
	cache            domain.CacheRepository
	estimator        domain.MealEstimator
	validator        *Validator
	cacheTTL         time.Duration
	specificRangePct int
	vagueRangePct    int
}

// NewEstimationService creates an estimation service with dependencies
func NewEstimationService(
	cache domain.CacheRepository,
	estimator domain.MealEstimator,
	config EstimationServiceConfig,
) *EstimationService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	specific := config.SpecificRangePct
	if specific == 0 {
		specific = 20
	}
	vague := config.VagueRangePct
	if vague == 0 {
		vague = 40
	}

	return &EstimationService{
		cache:            cache,
		estimator:        estimator,
		validator:        NewValidator(config.Tolerance),
		cacheTTL:         cacheTTL,
		specificRangePct: specific,
		vagueRangePct:    vague,
	}
}

// EstimateMeal estimates a single meal description. Either every item of the
// response validates, or the caller gets an error and no items at all.
func (s *EstimationService) EstimateMeal(ctx context.Context, description string) (*domain.EstimateResult, error) {
	description = strings.TrimSpace(description)
	// Characters, not bytes; accented descriptions must not burn the limit faster.
	if description == "" || utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}

	cacheKey := estimateCacheKey(description)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		log.Printf("[Estimate] cache hit for %q", description)
		return cached, nil
	}

	prompt := BuildEstimationPrompt(description, s.specificRangePct, s.vagueRangePct)

	raw, err := s.estimator.Estimate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	rawItems, err := ParseEstimate(raw)
	if err != nil {
		return nil, err
	}

	items, err := s.validator.ValidateAndReconcile(rawItems)
	if err != nil {
		return nil, err
	}

	result := &domain.EstimateResult{Items: items}
	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
		log.Printf("[Estimate] failed to cache result for %q: %v", description, err)
	}

	log.Printf("[Estimate] %q -> %d item(s)", description, len(items))
	return result, nil
}

// estimateCacheKey normalizes a description for use as a cache key.
// Lowercased, punctuation stripped, whitespace collapsed; accented letters
// stay intact so Spanish descriptions keep distinct keys.
func estimateCacheKey(description string) string {
	key := strings.ToLower(description)
	key = nonWordRegex.ReplaceAllString(key, "")
	key = multipleSpacesRegex.ReplaceAllString(key, " ")
	return "estimate:" + strings.TrimSpace(key)
}

// getFromCache retrieves a previously validated result. The cache stores
// JSON-shaped values, so a map round-trip is the common path.
func (s *EstimationService) getFromCache(ctx context.Context, key string) (*domain.EstimateResult, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if result, ok := value.(*domain.EstimateResult); ok {
		return result, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	var result domain.EstimateResult
	if err := json.Unmarshal(data, &result); err != nil || len(result.Items) == 0 {
		return nil, domain.ErrCacheMiss
	}
	return &result, nil
}
