package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

// Recency bias constants: similarity decays 1% per day since the entry was
// logged, blended so old meals keep at least 70% of their raw score.
const (
	recencyDecayPerDay = 0.99
	recencyBaseWeight  = 0.7
)

// SimilarMealService ranks previously logged meals against a free-text query
// by embedding similarity, biased toward recent entries. Used for
// autocomplete so a repeat meal skips the LLM round trip entirely.
type SimilarMealService struct {
	meals    domain.MealRepository
	embedder domain.EmbeddingClient
}

// NewSimilarMealService creates a similar-meal search service
func NewSimilarMealService(meals domain.MealRepository, embedder domain.EmbeddingClient) *SimilarMealService {
	return &SimilarMealService{meals: meals, embedder: embedder}
}

// Search returns up to limit entries ranked by recency-adjusted similarity.
func (s *SimilarMealService) Search(ctx context.Context, userID, query string, limit int) ([]domain.SimilarMeal, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 5
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	stored, err := s.meals.ListEmbeddings(ctx, userID)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SimilarMeal, 0, len(stored))
	for _, ee := range stored {
		sim := cosineSimilarity(queryEmbedding, ee.Embedding)
		matches = append(matches, domain.SimilarMeal{
			Entry:              ee.Entry,
			Similarity:         sim,
			OriginalSimilarity: sim,
		})
	}

	// Rank by raw similarity first and keep twice the requested amount, so
	// the recency re-ranking below has candidates to promote.
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit*2 {
		matches = matches[:limit*2]
	}

	today := time.Now().UTC()
	for i := range matches {
		days := daysSince(matches[i].Entry.DateLocal, today)
		recency := math.Pow(recencyDecayPerDay, float64(days))
		matches[i].Similarity = matches[i].OriginalSimilarity * (recencyBaseWeight + (1-recencyBaseWeight)*recency)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func daysSince(dateLocal string, now time.Time) int {
	logged, err := time.Parse(dateLayout, dateLocal)
	if err != nil {
		return 0
	}
	days := int(now.Sub(logged).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// cosineSimilarity over two vectors; 0 when either has no magnitude or the
// dimensions disagree.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
