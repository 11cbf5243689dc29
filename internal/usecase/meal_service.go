package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

const dateLayout = "2006-01-02"

// MealService owns the logged-entry lifecycle: create from an accepted
// estimate, list, portion/quantity edits, deletion, and the daily/weekly
// aggregates the tracking screens render.
type MealService struct {
	meals    domain.MealRepository
	embedder domain.EmbeddingClient
}

// NewMealService creates a meal service. embedder may be nil; entries are
// then stored without embeddings and skip similar-meal search.
func NewMealService(meals domain.MealRepository, embedder domain.EmbeddingClient) *MealService {
	return &MealService{meals: meals, embedder: embedder}
}

// Log persists a new entry built from an accepted estimate or suggestion.
func (s *MealService) Log(ctx context.Context, entry *domain.MealEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.EstimatedAt == nil {
		entry.EstimatedAt = &now
	}

	if err := s.meals.Insert(ctx, entry); err != nil {
		return err
	}

	s.updateEmbedding(ctx, entry)
	return nil
}

// ListDay returns the user's entries for one local date, in stored order.
func (s *MealService) ListDay(ctx context.Context, userID, dateLocal string) ([]domain.MealEntry, error) {
	if _, err := time.Parse(dateLayout, dateLocal); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", dateLocal, err)
	}
	return s.meals.ListByDate(ctx, userID, dateLocal)
}

// UpdatePortionLevel switches where within the stored range the entry
// resolves. The range itself does not change.
func (s *MealService) UpdatePortionLevel(ctx context.Context, userID, id string, level domain.PortionLevel) (*domain.MealEntry, error) {
	if !level.IsValid() {
		return nil, fmt.Errorf("invalid portion level %q", level)
	}

	entry, err := s.meals.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	entry.Portion = level
	entry.UpdatedAt = time.Now().UTC()
	if err := s.meals.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateQuantity re-derives the entry's current macros from its per-unit base
// values and persists the result. No unit conversion happens; when newUnit is
// set, quantity is taken to be expressed in that unit already.
func (s *MealService) UpdateQuantity(ctx context.Context, userID, id string, quantity float64, newUnit *domain.MealUnit) (*domain.MealEntry, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %g", quantity)
	}

	entry, err := s.meals.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rescaled, err := Rescale(entry, quantity)
	if err != nil {
		return nil, err
	}

	entry.Quantity = quantity
	if newUnit != nil {
		if !newUnit.IsValid() {
			return nil, fmt.Errorf("invalid unit %q", *newUnit)
		}
		entry.Unit = *newUnit
	}
	entry.Current = rescaled.Current
	entry.AlcoholG = rescaled.AlcoholG
	entry.AlcoholCals = rescaled.AlcoholCalories
	entry.UpdatedAt = time.Now().UTC()

	if err := s.meals.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReplaceEstimate applies a fresh estimation to an existing entry after its
// description changed. The first estimated item carries the macros; the
// caller has already run the estimation pipeline.
func (s *MealService) ReplaceEstimate(ctx context.Context, userID, id, description string, item *domain.FoodItemEstimate) (*domain.MealEntry, error) {
	entry, err := s.meals.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.Description = description
	entry.Quantity = item.Quantity
	entry.Unit = item.Unit
	entry.ContextNote = item.ContextNote
	entry.Current = item.Current
	entry.AlcoholG = item.AlcoholG
	entry.AlcoholCals = item.AlcoholCalories
	base := item.Base
	entry.Base = &base
	entry.BaseAlcohol = item.BaseAlcoholG
	entry.BaseAlcCals = item.BaseAlcoholCalories
	entry.Uncertainty = item.Uncertainty
	entry.UpdatedAt = now
	entry.EstimatedAt = &now

	if err := s.meals.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.updateEmbedding(ctx, entry)
	return entry, nil
}

// Delete removes an entry.
func (s *MealService) Delete(ctx context.Context, userID, id string) error {
	return s.meals.Delete(ctx, userID, id)
}

// DailyTotals returns the resolved macro sum for one date.
func (s *MealService) DailyTotals(ctx context.Context, userID, dateLocal string) (*domain.MacroTotals, error) {
	return s.meals.DailyTotals(ctx, userID, dateLocal)
}

// WeeklyStatus summarizes one tracking week against the user's targets.
type WeeklyStatus struct {
	Totals            domain.MacroTotals    `json:"totals"`
	Expected          domain.ExpectedMacros `json:"expected_weekly"`
	DaysElapsed       int                   `json:"days_elapsed"`
	DaysRemaining     int                   `json:"days_remaining"`
	RebalanceCalories int                   `json:"rebalance_calories"`
	AvgCalorieDelta   float64               `json:"avg_calorie_delta"`
}

// WeeklyStatus aggregates the week starting at weekStart, derives how many of
// its days are complete relative to today, and computes the rebalance
// adjustment plus the average daily calorie delta over the completed days.
func (s *MealService) WeeklyStatus(ctx context.Context, userID, weekStart, today string, settings *domain.UserSettings) (*WeeklyStatus, error) {
	start, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	now, err := time.Parse(dateLayout, today)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", today, err)
	}

	end := start.AddDate(0, 0, 6)
	daysElapsed, daysRemaining := 0, 7
	switch {
	case now.After(end):
		daysElapsed, daysRemaining = 7, 0
	case !now.Before(start):
		daysElapsed = int(now.Sub(start).Hours()/24) + 1
		daysRemaining = 7 - daysElapsed
	}

	totals, err := s.meals.WeeklyTotals(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}

	expected := ExpectedMacros(settings)
	weekly := domain.ExpectedMacros{
		Calories: expected.Calories * 7,
		ProteinG: expected.ProteinG * 7,
		CarbsG:   expected.CarbsG * 7,
		FatG:     expected.FatG * 7,
	}

	return &WeeklyStatus{
		Totals:            *totals,
		Expected:          weekly,
		DaysElapsed:       daysElapsed,
		DaysRemaining:     daysRemaining,
		RebalanceCalories: WeeklyRebalance(totals.Calories, weekly.Calories, daysElapsed, daysRemaining),
		AvgCalorieDelta:   AverageDeltaPerCompletedDay(totals.Calories, expected.Calories, daysElapsed, 1),
	}, nil
}

// updateEmbedding refreshes the entry's description embedding. Failures are
// logged and swallowed; similar-meal search degrades, tracking does not.
func (s *MealService) updateEmbedding(ctx context.Context, entry *domain.MealEntry) {
	if s.embedder == nil {
		return
	}
	embedding, err := s.embedder.Embed(ctx, entry.Description)
	if err != nil {
		log.Printf("[Meals] embedding failed for entry %s: %v", entry.ID, err)
		return
	}
	if err := s.meals.SaveEmbedding(ctx, entry.UserID, entry.ID, embedding); err != nil {
		log.Printf("[Meals] saving embedding failed for entry %s: %v", entry.ID, err)
	}
}

func validateEntry(entry *domain.MealEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("entry user id is required")
	}
	if _, err := time.Parse(dateLayout, entry.DateLocal); err != nil {
		return fmt.Errorf("invalid date %q: %w", entry.DateLocal, err)
	}
	if !entry.MealGroup.IsValid() {
		return fmt.Errorf("invalid meal group %q", entry.MealGroup)
	}
	if !entry.Portion.IsValid() {
		return fmt.Errorf("invalid portion level %q", entry.Portion)
	}
	if !entry.Unit.IsValid() {
		return fmt.Errorf("invalid unit %q", entry.Unit)
	}
	if entry.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %g", entry.Quantity)
	}
	if entry.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}
