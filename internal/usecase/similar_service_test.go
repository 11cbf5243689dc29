package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

func TestSimilarMealService_Search(t *testing.T) {
	ctx := context.Background()
	today := time.Now().UTC().Format(dateLayout)
	lastMonth := time.Now().UTC().AddDate(0, -1, 0).Format(dateLayout)

	setup := func() (*fakeMealRepo, *SimilarMealService) {
		repo := newFakeMealRepo()
		embedder := &fakeEmbedder{vectors: map[string][]float64{
			"chicken": {1, 0, 0},
		}}
		return repo, NewSimilarMealService(repo, embedder)
	}

	addEntry := func(repo *fakeMealRepo, id, description, date string, embedding []float64) {
		repo.entries[id] = &domain.MealEntry{
			ID: id, UserID: "u1", Description: description, DateLocal: date,
		}
		repo.embeddings[id] = embedding
	}

	t.Run("ranks by similarity", func(t *testing.T) {
		repo, svc := setup()
		addEntry(repo, "a", "grilled chicken", today, []float64{0.9, 0.1, 0})
		addEntry(repo, "b", "chocolate cake", today, []float64{0, 0, 1})
		addEntry(repo, "c", "chicken salad", today, []float64{0.8, 0.3, 0})

		matches, err := svc.Search(ctx, "u1", "chicken", 2)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("got %d matches, want 2", len(matches))
		}
		if matches[0].Entry.ID != "a" {
			t.Errorf("top match = %s, want a", matches[0].Entry.ID)
		}
		if matches[1].Entry.ID != "c" {
			t.Errorf("second match = %s, want c", matches[1].Entry.ID)
		}
		if matches[0].Similarity < matches[1].Similarity {
			t.Error("matches not sorted by similarity")
		}
	})

	t.Run("recency lowers older entries", func(t *testing.T) {
		repo, svc := setup()
		addEntry(repo, "old", "chicken", lastMonth, []float64{1, 0, 0})
		addEntry(repo, "new", "chicken", today, []float64{1, 0, 0})

		matches, err := svc.Search(ctx, "u1", "chicken", 2)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if matches[0].Entry.ID != "new" {
			t.Errorf("top match = %s, want the recent entry", matches[0].Entry.ID)
		}
		old := matches[1]
		if old.Similarity >= old.OriginalSimilarity {
			t.Errorf("old entry similarity %g not decayed from %g", old.Similarity, old.OriginalSimilarity)
		}
		// Decay is never more than the 30% recency share of the score.
		if old.Similarity < old.OriginalSimilarity*0.7-1e-9 {
			t.Errorf("decay exceeded its floor: %g < %g", old.Similarity, old.OriginalSimilarity*0.7)
		}
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		_, svc := setup()
		if _, err := svc.Search(ctx, "u1", "", 5); err == nil {
			t.Error("Search() accepted an empty query")
		}
	})

	t.Run("embedding failure surfaces as LLM failure", func(t *testing.T) {
		repo := newFakeMealRepo()
		svc := NewSimilarMealService(repo, &fakeEmbedder{err: errors.New("quota exceeded")})
		_, err := svc.Search(ctx, "u1", "chicken", 5)
		if !errors.Is(err, domain.ErrLLMFailure) {
			t.Errorf("error = %v, want ErrLLMFailure", err)
		}
	})

	t.Run("no stored embeddings yields empty result", func(t *testing.T) {
		_, svc := setup()
		matches, err := svc.Search(ctx, "u1", "chicken", 5)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("got %d matches, want 0", len(matches))
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical vectors", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal vectors", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite vectors", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1},
		{name: "dimension mismatch", a: []float64{1, 0}, b: []float64{1, 0, 0}, want: 0},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "empty vectors", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity() = %g, want %g", got, tt.want)
			}
		})
	}
}
