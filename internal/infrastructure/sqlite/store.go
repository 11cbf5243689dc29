// Package sqlite implements the durable-store collaborators on a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mealtrack/backend/internal/domain"
)

// Store wraps the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS user_settings (
	user_id TEXT PRIMARY KEY,
	daily_calories_target REAL NOT NULL,
	protein_pct REAL NOT NULL,
	carbs_pct REAL NOT NULL,
	fat_pct REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS meal_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date_local TEXT NOT NULL,
	meal_group TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL,
	quantity REAL NOT NULL,
	unit TEXT NOT NULL,
	context_note TEXT,
	calories_min REAL NOT NULL,
	calories_max REAL NOT NULL,
	protein_g_min REAL NOT NULL,
	protein_g_max REAL NOT NULL,
	carbs_g_min REAL NOT NULL,
	carbs_g_max REAL NOT NULL,
	fat_g_min REAL NOT NULL,
	fat_g_max REAL NOT NULL,
	alcohol_g REAL NOT NULL DEFAULT 0,
	alcohol_calories REAL NOT NULL DEFAULT 0,
	base_calories_min REAL,
	base_calories_max REAL,
	base_protein_g_min REAL,
	base_protein_g_max REAL,
	base_carbs_g_min REAL,
	base_carbs_g_max REAL,
	base_fat_g_min REAL,
	base_fat_g_max REAL,
	base_alcohol_g REAL NOT NULL DEFAULT 0,
	base_alcohol_calories REAL NOT NULL DEFAULT 0,
	uncertainty INTEGER NOT NULL DEFAULT 0,
	portion_level TEXT NOT NULL DEFAULT 'ok',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	last_estimated_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_meal_entries_user_date ON meal_entries(user_id, date_local);

CREATE TABLE IF NOT EXISTS meal_embeddings (
	meal_entry_id TEXT PRIMARY KEY REFERENCES meal_entries(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	embedding TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meal_embeddings_user ON meal_embeddings(user_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// portionCase resolves an entry's value within its range at SQL level,
// mirroring PortionLevel.Resolve: light -> min, heavy -> max, ok -> midpoint.
func portionCase(min, max string) string {
	return fmt.Sprintf(
		"CASE portion_level WHEN 'light' THEN %s WHEN 'heavy' THEN %s ELSE (%s+%s)/2.0 END",
		min, max, min, max,
	)
}

// MealRepository implements domain.MealRepository on the store.
type MealRepository struct {
	store *Store
}

// NewMealRepository creates a meal repository
func NewMealRepository(store *Store) *MealRepository {
	return &MealRepository{store: store}
}

const mealColumns = `id, user_id, date_local, meal_group, position, description, quantity, unit, context_note,
	calories_min, calories_max, protein_g_min, protein_g_max, carbs_g_min, carbs_g_max, fat_g_min, fat_g_max,
	alcohol_g, alcohol_calories,
	base_calories_min, base_calories_max, base_protein_g_min, base_protein_g_max,
	base_carbs_g_min, base_carbs_g_max, base_fat_g_min, base_fat_g_max,
	base_alcohol_g, base_alcohol_calories,
	uncertainty, portion_level, created_at, updated_at, last_estimated_at`

// Insert stores a new entry. A missing ID is assigned; a missing position is
// placed after the group's current last entry.
func (r *MealRepository) Insert(ctx context.Context, entry *domain.MealEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Position == 0 {
		var max sql.NullInt64
		err := r.store.db.QueryRowContext(ctx,
			`SELECT MAX(position) FROM meal_entries WHERE user_id = ? AND date_local = ? AND meal_group = ?`,
			entry.UserID, entry.DateLocal, entry.MealGroup,
		).Scan(&max)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		if max.Valid {
			entry.Position = int(max.Int64) + 1
		}
	}

	base := baseValues(entry)
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO meal_entries (`+mealColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		entry.ID, entry.UserID, entry.DateLocal, entry.MealGroup, entry.Position, entry.Description,
		entry.Quantity, entry.Unit, entry.ContextNote,
		entry.Current.CaloriesMin, entry.Current.CaloriesMax,
		entry.Current.ProteinGMin, entry.Current.ProteinGMax,
		entry.Current.CarbsGMin, entry.Current.CarbsGMax,
		entry.Current.FatGMin, entry.Current.FatGMax,
		entry.AlcoholG, entry.AlcoholCals,
		base[0], base[1], base[2], base[3], base[4], base[5], base[6], base[7],
		entry.BaseAlcohol, entry.BaseAlcCals,
		boolToInt(entry.Uncertainty), entry.Portion,
		formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt), formatTimePtr(entry.EstimatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert meal entry: %w", err)
	}
	return nil
}

// GetByID fetches one entry owned by the user.
func (r *MealRepository) GetByID(ctx context.Context, userID, id string) (*domain.MealEntry, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+mealColumns+` FROM meal_entries WHERE id = ? AND user_id = ?`, id, userID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return entry, err
}

// ListByDate returns the user's entries for one date ordered by meal group
// and position.
func (r *MealRepository) ListByDate(ctx context.Context, userID, dateLocal string) ([]domain.MealEntry, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+mealColumns+` FROM meal_entries WHERE user_id = ? AND date_local = ?
		 ORDER BY CASE meal_group WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'snack' THEN 2 ELSE 3 END, position`,
		userID, dateLocal)
	if err != nil {
		return nil, fmt.Errorf("list meal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.MealEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Update rewrites every mutable column of the entry.
func (r *MealRepository) Update(ctx context.Context, entry *domain.MealEntry) error {
	base := baseValues(entry)
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE meal_entries SET
			date_local = ?, meal_group = ?, position = ?, description = ?, quantity = ?, unit = ?, context_note = ?,
			calories_min = ?, calories_max = ?, protein_g_min = ?, protein_g_max = ?,
			carbs_g_min = ?, carbs_g_max = ?, fat_g_min = ?, fat_g_max = ?,
			alcohol_g = ?, alcohol_calories = ?,
			base_calories_min = ?, base_calories_max = ?, base_protein_g_min = ?, base_protein_g_max = ?,
			base_carbs_g_min = ?, base_carbs_g_max = ?, base_fat_g_min = ?, base_fat_g_max = ?,
			base_alcohol_g = ?, base_alcohol_calories = ?,
			uncertainty = ?, portion_level = ?, updated_at = ?, last_estimated_at = ?
		 WHERE id = ? AND user_id = ?`,
		entry.DateLocal, entry.MealGroup, entry.Position, entry.Description, entry.Quantity, entry.Unit, entry.ContextNote,
		entry.Current.CaloriesMin, entry.Current.CaloriesMax,
		entry.Current.ProteinGMin, entry.Current.ProteinGMax,
		entry.Current.CarbsGMin, entry.Current.CarbsGMax,
		entry.Current.FatGMin, entry.Current.FatGMax,
		entry.AlcoholG, entry.AlcoholCals,
		base[0], base[1], base[2], base[3], base[4], base[5], base[6], base[7],
		entry.BaseAlcohol, entry.BaseAlcCals,
		boolToInt(entry.Uncertainty), entry.Portion, formatTime(entry.UpdatedAt), formatTimePtr(entry.EstimatedAt),
		entry.ID, entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("update meal entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// Delete removes the user's entry.
func (r *MealRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.store.db.ExecContext(ctx,
		`DELETE FROM meal_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete meal entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// DailyTotals resolves every entry at its portion level, adds alcohol
// calories, and sums the day.
func (r *MealRepository) DailyTotals(ctx context.Context, userID, dateLocal string) (*domain.MacroTotals, error) {
	return r.totals(ctx,
		`WHERE user_id = ? AND date_local = ?`,
		userID, dateLocal)
}

// WeeklyTotals aggregates the seven days starting at weekStart.
func (r *MealRepository) WeeklyTotals(ctx context.Context, userID, weekStart string) (*domain.MacroTotals, error) {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	end := start.AddDate(0, 0, 6).Format("2006-01-02")
	return r.totals(ctx,
		`WHERE user_id = ? AND date_local >= ? AND date_local <= ?`,
		userID, weekStart, end)
}

func (r *MealRepository) totals(ctx context.Context, where string, args ...interface{}) (*domain.MacroTotals, error) {
	query := fmt.Sprintf(
		`SELECT
			COALESCE(SUM(%s + alcohol_calories), 0),
			COALESCE(SUM(%s), 0),
			COALESCE(SUM(%s), 0),
			COALESCE(SUM(%s), 0)
		 FROM meal_entries %s`,
		portionCase("calories_min", "calories_max"),
		portionCase("protein_g_min", "protein_g_max"),
		portionCase("carbs_g_min", "carbs_g_max"),
		portionCase("fat_g_min", "fat_g_max"),
		where,
	)

	totals := &domain.MacroTotals{}
	err := r.store.db.QueryRowContext(ctx, query, args...).
		Scan(&totals.Calories, &totals.ProteinG, &totals.CarbsG, &totals.FatG)
	if err != nil {
		return nil, fmt.Errorf("aggregate totals: %w", err)
	}
	return totals, nil
}

// SaveEmbedding upserts an entry's description embedding, stored as JSON.
func (r *MealRepository) SaveEmbedding(ctx context.Context, userID, entryID string, embedding []float64) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO meal_embeddings (meal_entry_id, user_id, embedding, updated_at)
		 VALUES (?,?,?,?)
		 ON CONFLICT(meal_entry_id) DO UPDATE SET embedding = excluded.embedding, updated_at = excluded.updated_at`,
		entryID, userID, string(data), formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}

// ListEmbeddings returns every entry of the user that has an embedding.
func (r *MealRepository) ListEmbeddings(ctx context.Context, userID string) ([]domain.EntryEmbedding, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+prefixColumns("e", mealColumns)+`, m.embedding
		 FROM meal_entries e JOIN meal_embeddings m ON m.meal_entry_id = e.id
		 WHERE e.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.EntryEmbedding
	for rows.Next() {
		entry, raw, err := scanEntryWithEmbedding(rows)
		if err != nil {
			return nil, err
		}
		var embedding []float64
		if err := json.Unmarshal([]byte(raw), &embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", entry.ID, err)
		}
		out = append(out, domain.EntryEmbedding{Entry: *entry, Embedding: embedding})
	}
	return out, rows.Err()
}

// SettingsRepository implements domain.SettingsRepository on the store.
type SettingsRepository struct {
	store *Store
}

// NewSettingsRepository creates a settings repository
func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// Get returns the user's settings.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	settings := &domain.UserSettings{}
	err := r.store.db.QueryRowContext(ctx,
		`SELECT user_id, daily_calories_target, protein_pct, carbs_pct, fat_pct
		 FROM user_settings WHERE user_id = ?`, userID).
		Scan(&settings.UserID, &settings.DailyCaloriesTarget, &settings.ProteinPct, &settings.CarbsPct, &settings.FatPct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// Upsert stores the settings.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, daily_calories_target, protein_pct, carbs_pct, fat_pct)
		 VALUES (?,?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET
			daily_calories_target = excluded.daily_calories_target,
			protein_pct = excluded.protein_pct,
			carbs_pct = excluded.carbs_pct,
			fat_pct = excluded.fat_pct`,
		settings.UserID, settings.DailyCaloriesTarget, settings.ProteinPct, settings.CarbsPct, settings.FatPct)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
