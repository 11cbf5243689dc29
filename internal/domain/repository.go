package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for the key-value cache collaborator.
// GetAllByIndex supports secondary-index lookups (e.g. all cached entries for
// one date) without the caller depending on how the store is organized.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetAllByIndex(ctx context.Context, index, value string) ([]interface{}, error)
}

// MealEstimator defines the interface for the external LLM collaborator that
// turns a free-text meal description into raw (unvalidated) JSON.
type MealEstimator interface {
	// Estimate returns the model's raw JSON output for the given prompt.
	Estimate(ctx context.Context, prompt string) (string, error)
}

// EmbeddingClient produces a vector embedding for a meal description,
// used by the similar-meal search.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// MealRepository defines the interface for meal entry persistence and the
// aggregate queries the tracking screens rely on.
type MealRepository interface {
	Insert(ctx context.Context, entry *MealEntry) error
	GetByID(ctx context.Context, userID, id string) (*MealEntry, error)
	ListByDate(ctx context.Context, userID, dateLocal string) ([]MealEntry, error)
	Update(ctx context.Context, entry *MealEntry) error
	Delete(ctx context.Context, userID, id string) error

	// DailyTotals resolves every entry for the date at its portion level,
	// adds alcohol calories, and sums the result.
	DailyTotals(ctx context.Context, userID, dateLocal string) (*MacroTotals, error)
	// WeeklyTotals aggregates the seven days starting at weekStart (YYYY-MM-DD).
	WeeklyTotals(ctx context.Context, userID, weekStart string) (*MacroTotals, error)

	// SaveEmbedding stores the description embedding for an entry.
	SaveEmbedding(ctx context.Context, userID, entryID string, embedding []float64) error
	// ListEmbeddings returns all entries of the user that carry an embedding.
	ListEmbeddings(ctx context.Context, userID string) ([]EntryEmbedding, error)
}

// EntryEmbedding pairs a stored entry with its description embedding.
type EntryEmbedding struct {
	Entry     MealEntry
	Embedding []float64
}

// SettingsRepository defines the interface for user settings persistence.
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*UserSettings, error)
	Upsert(ctx context.Context, settings *UserSettings) error
}
