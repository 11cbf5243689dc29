package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mealtrack/backend/internal/domain"
)

// fakeMealRepo is an in-memory MealRepository for tests.
type fakeMealRepo struct {
	entries      map[string]*domain.MealEntry
	embeddings   map[string][]float64
	weeklyTotals *domain.MacroTotals
	nextID       int
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{
		entries:    make(map[string]*domain.MealEntry),
		embeddings: make(map[string][]float64),
	}
}

func (r *fakeMealRepo) Insert(ctx context.Context, entry *domain.MealEntry) error {
	if entry.ID == "" {
		r.nextID++
		entry.ID = string(rune('0' + r.nextID))
	}
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *fakeMealRepo) GetByID(ctx context.Context, userID, id string) (*domain.MealEntry, error) {
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return nil, domain.ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeMealRepo) ListByDate(ctx context.Context, userID, dateLocal string) ([]domain.MealEntry, error) {
	var out []domain.MealEntry
	for _, e := range r.entries {
		if e.UserID == userID && e.DateLocal == dateLocal {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeMealRepo) Update(ctx context.Context, entry *domain.MealEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *fakeMealRepo) Delete(ctx context.Context, userID, id string) error {
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return domain.ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeMealRepo) DailyTotals(ctx context.Context, userID, dateLocal string) (*domain.MacroTotals, error) {
	totals := &domain.MacroTotals{}
	for _, e := range r.entries {
		if e.UserID == userID && e.DateLocal == dateLocal {
			m := MealMacros(e)
			totals.Calories += m.Calories
			totals.ProteinG += m.ProteinG
			totals.CarbsG += m.CarbsG
			totals.FatG += m.FatG
		}
	}
	return totals, nil
}

func (r *fakeMealRepo) WeeklyTotals(ctx context.Context, userID, weekStart string) (*domain.MacroTotals, error) {
	if r.weeklyTotals != nil {
		return r.weeklyTotals, nil
	}
	return &domain.MacroTotals{}, nil
}

func (r *fakeMealRepo) SaveEmbedding(ctx context.Context, userID, entryID string, embedding []float64) error {
	r.embeddings[entryID] = embedding
	return nil
}

func (r *fakeMealRepo) ListEmbeddings(ctx context.Context, userID string) ([]domain.EntryEmbedding, error) {
	var out []domain.EntryEmbedding
	for id, emb := range r.embeddings {
		entry, ok := r.entries[id]
		if !ok || entry.UserID != userID {
			continue
		}
		out = append(out, domain.EntryEmbedding{Entry: *entry, Embedding: emb})
	}
	return out, nil
}

// fakeEmbedder returns a fixed vector per text.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

func testEntry(userID string) *domain.MealEntry {
	return &domain.MealEntry{
		UserID:      userID,
		DateLocal:   "2026-03-02",
		MealGroup:   domain.GroupLunch,
		Description: "chicken breast",
		Quantity:    100,
		Unit:        domain.UnitGram,
		Current: domain.MacroRange{
			CaloriesMin: 106, CaloriesMax: 149,
			ProteinGMin: 22, ProteinGMax: 26,
			FatGMin: 2, FatGMax: 5,
		},
		Base: &domain.MacroRange{
			CaloriesMin: 1.06, CaloriesMax: 1.49,
			ProteinGMin: 0.22, ProteinGMax: 0.26,
			FatGMin: 0.02, FatGMax: 0.05,
		},
		Portion: domain.PortionOK,
	}
}

func TestMealService_Log(t *testing.T) {
	repo := newFakeMealRepo()
	svc := NewMealService(repo, &fakeEmbedder{})
	ctx := context.Background()

	entry := testEntry("u1")
	if err := svc.Log(ctx, entry); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("Log() did not assign an ID")
	}
	if entry.CreatedAt.IsZero() || entry.UpdatedAt.IsZero() {
		t.Error("Log() did not set timestamps")
	}
	if entry.EstimatedAt == nil {
		t.Error("Log() did not set the estimation timestamp")
	}
	if _, ok := repo.embeddings[entry.ID]; !ok {
		t.Error("Log() did not store an embedding")
	}

	t.Run("embedding failure does not fail the log", func(t *testing.T) {
		svc := NewMealService(repo, &fakeEmbedder{err: errors.New("quota exceeded")})
		if err := svc.Log(ctx, testEntry("u1")); err != nil {
			t.Errorf("Log() error = %v, want nil despite embedding failure", err)
		}
	})

	t.Run("nil embedder skips embeddings", func(t *testing.T) {
		svc := NewMealService(repo, nil)
		entry := testEntry("u1")
		if err := svc.Log(ctx, entry); err != nil {
			t.Errorf("Log() error = %v", err)
		}
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		invalid := testEntry("u1")
		invalid.MealGroup = "brunch"
		if err := svc.Log(ctx, invalid); err == nil {
			t.Error("Log() accepted an invalid meal group")
		}

		invalid = testEntry("u1")
		invalid.DateLocal = "03/02/2026"
		if err := svc.Log(ctx, invalid); err == nil {
			t.Error("Log() accepted a malformed date")
		}
	})
}

func TestMealService_UpdatePortionLevel(t *testing.T) {
	repo := newFakeMealRepo()
	svc := NewMealService(repo, nil)
	ctx := context.Background()

	entry := testEntry("u1")
	if err := svc.Log(ctx, entry); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	updated, err := svc.UpdatePortionLevel(ctx, "u1", entry.ID, domain.PortionHeavy)
	if err != nil {
		t.Fatalf("UpdatePortionLevel() error = %v", err)
	}
	if updated.Portion != domain.PortionHeavy {
		t.Errorf("Portion = %s, want heavy", updated.Portion)
	}
	// The stored range itself is untouched.
	if updated.Current.CaloriesMin != 106 || updated.Current.CaloriesMax != 149 {
		t.Errorf("range changed to %g-%g, want 106-149",
			updated.Current.CaloriesMin, updated.Current.CaloriesMax)
	}

	t.Run("rejects unknown level", func(t *testing.T) {
		if _, err := svc.UpdatePortionLevel(ctx, "u1", entry.ID, "huge"); err == nil {
			t.Error("UpdatePortionLevel() accepted an unknown level")
		}
	})

	t.Run("other user's entry is not found", func(t *testing.T) {
		_, err := svc.UpdatePortionLevel(ctx, "u2", entry.ID, domain.PortionLight)
		if !errors.Is(err, domain.ErrEntryNotFound) {
			t.Errorf("error = %v, want ErrEntryNotFound", err)
		}
	})
}

func TestMealService_UpdateQuantity(t *testing.T) {
	repo := newFakeMealRepo()
	svc := NewMealService(repo, nil)
	ctx := context.Background()

	entry := testEntry("u1")
	if err := svc.Log(ctx, entry); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	updated, err := svc.UpdateQuantity(ctx, "u1", entry.ID, 150, nil)
	if err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	if updated.Quantity != 150 {
		t.Errorf("Quantity = %g, want 150", updated.Quantity)
	}
	if updated.Current.CaloriesMin != 159 { // round(1.06*150)
		t.Errorf("CaloriesMin = %g, want 159", updated.Current.CaloriesMin)
	}
	if updated.Current.ProteinGMax != 39 { // 0.26*150
		t.Errorf("ProteinGMax = %g, want 39", updated.Current.ProteinGMax)
	}
	// Base values never change with quantity edits.
	if updated.Base.CaloriesMin != 1.06 {
		t.Errorf("Base.CaloriesMin = %g, want 1.06", updated.Base.CaloriesMin)
	}

	t.Run("unit change applies alongside quantity", func(t *testing.T) {
		newUnit := domain.UnitPiece
		updated, err := svc.UpdateQuantity(ctx, "u1", entry.ID, 2, &newUnit)
		if err != nil {
			t.Fatalf("UpdateQuantity() error = %v", err)
		}
		if updated.Unit != domain.UnitPiece {
			t.Errorf("Unit = %s, want piece", updated.Unit)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		if _, err := svc.UpdateQuantity(ctx, "u1", entry.ID, 0, nil); err == nil {
			t.Error("UpdateQuantity() accepted quantity 0")
		}
	})

	t.Run("legacy entry without base is refused", func(t *testing.T) {
		legacy := testEntry("u1")
		legacy.Base = nil
		if err := svc.Log(ctx, legacy); err != nil {
			t.Fatalf("Log() error = %v", err)
		}

		_, err := svc.UpdateQuantity(ctx, "u1", legacy.ID, 2, nil)
		if !errors.Is(err, domain.ErrMissingBaseMacros) {
			t.Errorf("error = %v, want ErrMissingBaseMacros", err)
		}
	})
}

func TestMealService_WeeklyStatus(t *testing.T) {
	settings := &domain.UserSettings{
		UserID:              "u1",
		DailyCaloriesTarget: 2000,
		ProteinPct:          30,
		CarbsPct:            40,
		FatPct:              30,
	}

	t.Run("mid-week rebalance", func(t *testing.T) {
		repo := newFakeMealRepo()
		repo.weeklyTotals = &domain.MacroTotals{Calories: 4500}
		svc := NewMealService(repo, nil)

		// Monday-start week, Tuesday today: two days complete.
		status, err := svc.WeeklyStatus(context.Background(), "u1", "2026-03-02", "2026-03-03", settings)
		if err != nil {
			t.Fatalf("WeeklyStatus() error = %v", err)
		}

		if status.DaysElapsed != 2 || status.DaysRemaining != 5 {
			t.Errorf("days = %d/%d, want 2/5", status.DaysElapsed, status.DaysRemaining)
		}
		if status.Expected.Calories != 14000 {
			t.Errorf("Expected.Calories = %g, want 14000", status.Expected.Calories)
		}
		if status.RebalanceCalories != -100 { // -(4500-4000)/5
			t.Errorf("RebalanceCalories = %d, want -100", status.RebalanceCalories)
		}
		if status.AvgCalorieDelta != 250 { // 4500/2 - 2000
			t.Errorf("AvgCalorieDelta = %g, want 250", status.AvgCalorieDelta)
		}
	})

	t.Run("past week is fully elapsed", func(t *testing.T) {
		repo := newFakeMealRepo()
		repo.weeklyTotals = &domain.MacroTotals{Calories: 15000}
		svc := NewMealService(repo, nil)

		status, err := svc.WeeklyStatus(context.Background(), "u1", "2026-02-23", "2026-03-03", settings)
		if err != nil {
			t.Fatalf("WeeklyStatus() error = %v", err)
		}
		if status.DaysElapsed != 7 || status.DaysRemaining != 0 {
			t.Errorf("days = %d/%d, want 7/0", status.DaysElapsed, status.DaysRemaining)
		}
		if status.RebalanceCalories != 0 {
			t.Errorf("RebalanceCalories = %d, want 0 for a finished week", status.RebalanceCalories)
		}
	})

	t.Run("future week has no elapsed days", func(t *testing.T) {
		repo := newFakeMealRepo()
		svc := NewMealService(repo, nil)

		status, err := svc.WeeklyStatus(context.Background(), "u1", "2026-03-09", "2026-03-03", settings)
		if err != nil {
			t.Fatalf("WeeklyStatus() error = %v", err)
		}
		if status.DaysElapsed != 0 || status.DaysRemaining != 7 {
			t.Errorf("days = %d/%d, want 0/7", status.DaysElapsed, status.DaysRemaining)
		}
		if status.AvgCalorieDelta != 0 {
			t.Errorf("AvgCalorieDelta = %g, want 0", status.AvgCalorieDelta)
		}
	})
}

func TestMealService_DailyTotals(t *testing.T) {
	repo := newFakeMealRepo()
	svc := NewMealService(repo, nil)
	ctx := context.Background()

	entry := testEntry("u1")
	entry.AlcoholCals = 70
	if err := svc.Log(ctx, entry); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	totals, err := svc.DailyTotals(ctx, "u1", "2026-03-02")
	if err != nil {
		t.Fatalf("DailyTotals() error = %v", err)
	}
	// Midpoint of 106-149 plus 70 alcohol calories.
	if totals.Calories != 197.5 {
		t.Errorf("Calories = %g, want 197.5", totals.Calories)
	}
	if totals.ProteinG != 24 {
		t.Errorf("ProteinG = %g, want 24", totals.ProteinG)
	}
}
