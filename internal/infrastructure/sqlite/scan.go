package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

const timeLayout = time.RFC3339

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// baseValues flattens the optional base range into eight nullable columns.
func baseValues(entry *domain.MealEntry) [8]interface{} {
	var out [8]interface{}
	if entry.Base == nil {
		return out
	}
	b := entry.Base
	out = [8]interface{}{
		b.CaloriesMin, b.CaloriesMax,
		b.ProteinGMin, b.ProteinGMax,
		b.CarbsGMin, b.CarbsGMax,
		b.FatGMin, b.FatGMax,
	}
	return out
}

// prefixColumns qualifies every column in list with the table alias.
func prefixColumns(alias, list string) string {
	cols := strings.Split(list, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanEntry(row rowScanner) (*domain.MealEntry, error) {
	entry, _, err := scanEntryInto(row, false)
	return entry, err
}

func scanEntryWithEmbedding(row rowScanner) (*domain.MealEntry, string, error) {
	return scanEntryInto(row, true)
}

func scanEntryInto(row rowScanner, withEmbedding bool) (*domain.MealEntry, string, error) {
	var (
		entry       domain.MealEntry
		contextNote sql.NullString
		base        [8]sql.NullFloat64
		uncertainty int
		createdAt   string
		updatedAt   string
		estimatedAt sql.NullString
		embedding   string
	)

	dest := []interface{}{
		&entry.ID, &entry.UserID, &entry.DateLocal, &entry.MealGroup, &entry.Position,
		&entry.Description, &entry.Quantity, &entry.Unit, &contextNote,
		&entry.Current.CaloriesMin, &entry.Current.CaloriesMax,
		&entry.Current.ProteinGMin, &entry.Current.ProteinGMax,
		&entry.Current.CarbsGMin, &entry.Current.CarbsGMax,
		&entry.Current.FatGMin, &entry.Current.FatGMax,
		&entry.AlcoholG, &entry.AlcoholCals,
		&base[0], &base[1], &base[2], &base[3], &base[4], &base[5], &base[6], &base[7],
		&entry.BaseAlcohol, &entry.BaseAlcCals,
		&uncertainty, &entry.Portion, &createdAt, &updatedAt, &estimatedAt,
	}
	if withEmbedding {
		dest = append(dest, &embedding)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, "", err
	}

	if contextNote.Valid {
		entry.ContextNote = &contextNote.String
	}
	entry.Uncertainty = uncertainty != 0
	if base[0].Valid {
		entry.Base = &domain.MacroRange{
			CaloriesMin: base[0].Float64, CaloriesMax: base[1].Float64,
			ProteinGMin: base[2].Float64, ProteinGMax: base[3].Float64,
			CarbsGMin: base[4].Float64, CarbsGMax: base[5].Float64,
			FatGMin: base[6].Float64, FatGMax: base[7].Float64,
		}
	}

	var err error
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, "", fmt.Errorf("parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, "", fmt.Errorf("parse updated_at: %w", err)
	}
	if estimatedAt.Valid {
		t, err := parseTime(estimatedAt.String)
		if err != nil {
			return nil, "", fmt.Errorf("parse last_estimated_at: %w", err)
		}
		entry.EstimatedAt = &t
	}

	return &entry, embedding, nil
}
