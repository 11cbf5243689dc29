package domain

import (
	"fmt"
	"time"
)

// MealUnit is the closed set of measurement units. The values are part of the
// wire contract shared with the LLM prompt and the stored entries; extending
// the set requires a storage migration.
type MealUnit string

const (
	UnitPortion MealUnit = "portion"
	UnitGram    MealUnit = "g"
	UnitML      MealUnit = "ml"
	UnitSpoon   MealUnit = "spoon"
	UnitPiece   MealUnit = "piece"
	UnitCup     MealUnit = "cup"
)

// ValidUnits lists every accepted unit, in prompt order.
var ValidUnits = []MealUnit{UnitPortion, UnitGram, UnitML, UnitSpoon, UnitPiece, UnitCup}

// IsValid reports whether u is one of the six supported units.
func (u MealUnit) IsValid() bool {
	switch u {
	case UnitPortion, UnitGram, UnitML, UnitSpoon, UnitPiece, UnitCup:
		return true
	}
	return false
}

// unitLabels holds the short display label per unit.
var unitLabels = map[MealUnit]string{
	UnitPortion: "portion",
	UnitGram:    "g",
	UnitML:      "ml",
	UnitSpoon:   "tbsp",
	UnitPiece:   "pc",
	UnitCup:     "cup",
}

// unitLabelsFull holds the full label per unit, for tooltips/accessibility.
var unitLabelsFull = map[MealUnit]string{
	UnitPortion: "portion",
	UnitGram:    "grams",
	UnitML:      "milliliters",
	UnitSpoon:   "tablespoon",
	UnitPiece:   "piece",
	UnitCup:     "cup",
}

// Label returns the short display label for the unit.
func (u MealUnit) Label() string {
	return unitLabels[u]
}

// LabelFull returns the full label for the unit.
func (u MealUnit) LabelFull() string {
	return unitLabelsFull[u]
}

// FormatQuantity renders a quantity with its short unit label.
// The implicit default "1 portion" renders as an empty string.
func FormatQuantity(quantity float64, unit MealUnit) string {
	if quantity == 1 && unit == UnitPortion {
		return ""
	}
	return fmt.Sprintf("%g%s", quantity, unit.Label())
}

// FormatQuantityFull always renders the quantity, including "1 portion".
func FormatQuantityFull(quantity float64, unit MealUnit) string {
	return fmt.Sprintf("%g %s", quantity, unit.Label())
}

// PortionLevel is the coarse user-chosen adjustment selecting where within a
// stored macro range the displayed value resolves.
type PortionLevel string

const (
	PortionLight PortionLevel = "light"
	PortionOK    PortionLevel = "ok"
	PortionHeavy PortionLevel = "heavy"
)

// IsValid reports whether l is one of the three portion levels.
func (l PortionLevel) IsValid() bool {
	return l == PortionLight || l == PortionOK || l == PortionHeavy
}

// Resolve picks a value from a [min, max] range: light resolves to min,
// heavy to max, ok to the midpoint.
func (l PortionLevel) Resolve(min, max float64) float64 {
	switch l {
	case PortionLight:
		return min
	case PortionHeavy:
		return max
	default:
		return (min + max) / 2
	}
}

// MealGroup identifies which meal of the day an entry belongs to.
type MealGroup string

const (
	GroupBreakfast MealGroup = "breakfast"
	GroupLunch     MealGroup = "lunch"
	GroupSnack     MealGroup = "snack"
	GroupDinner    MealGroup = "dinner"
)

// IsValid reports whether g is one of the four meal groups.
func (g MealGroup) IsValid() bool {
	switch g {
	case GroupBreakfast, GroupLunch, GroupSnack, GroupDinner:
		return true
	}
	return false
}

// MacroRange holds a min/max estimate for calories and the three macros.
// After reconciliation, CaloriesMin == round(ProteinGMin*4 + CarbsGMin*4 +
// FatGMin*9) and symmetrically for max. Alcohol calories are never part of
// the range.
type MacroRange struct {
	CaloriesMin float64 `json:"calories_min"`
	CaloriesMax float64 `json:"calories_max"`
	ProteinGMin float64 `json:"protein_g_min"`
	ProteinGMax float64 `json:"protein_g_max"`
	CarbsGMin   float64 `json:"carbs_g_min"`
	CarbsGMax   float64 `json:"carbs_g_max"`
	FatGMin     float64 `json:"fat_g_min"`
	FatGMax     float64 `json:"fat_g_max"`
}

// FoodItemEstimate is one validated food item produced by the estimation
// pipeline. Current macros cover the stated quantity; Base macros are
// normalized to exactly one unit so a later quantity edit can be rescaled
// without re-invoking the model.
type FoodItemEstimate struct {
	Name        string   `json:"name"`
	Quantity    float64  `json:"quantity"`
	Unit        MealUnit `json:"unit"`
	ContextNote *string  `json:"context_note"`

	Current         MacroRange `json:"current"`
	AlcoholG        float64    `json:"alcohol_g"`
	AlcoholCalories float64    `json:"alcohol_calories"`

	Base                MacroRange `json:"base"`
	BaseAlcoholG        float64    `json:"base_alcohol_g"`
	BaseAlcoholCalories float64    `json:"base_alcohol_calories"`

	Uncertainty bool `json:"uncertainty"`
}

// EstimateResult is the validated output of a single estimation request.
type EstimateResult struct {
	Items []FoodItemEstimate `json:"items"`
}

// MealEntry is a persisted food item with its tracking metadata. Each entry
// is owned by exactly one user; the estimation and rescaling engines operate
// statelessly on values passed to them.
type MealEntry struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	DateLocal   string       `json:"date_local"` // YYYY-MM-DD
	MealGroup   MealGroup    `json:"meal_group"`
	Position    int          `json:"position"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	Unit        MealUnit     `json:"unit"`
	ContextNote *string      `json:"context_note,omitempty"`
	Current     MacroRange   `json:"current"`
	AlcoholG    float64      `json:"alcohol_g"`
	AlcoholCals float64      `json:"alcohol_calories"`
	Base        *MacroRange  `json:"base,omitempty"` // nil for legacy entries
	BaseAlcohol float64      `json:"base_alcohol_g"`
	BaseAlcCals float64      `json:"base_alcohol_calories"`
	Uncertainty bool         `json:"uncertainty"`
	Portion     PortionLevel `json:"portion_level"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	EstimatedAt *time.Time   `json:"last_estimated_at,omitempty"`
}

// UserSettings drives the expected-macro derivation. The three percentages
// must sum to 100 within 0.01.
type UserSettings struct {
	UserID              string  `json:"user_id"`
	DailyCaloriesTarget float64 `json:"daily_calories_target"`
	ProteinPct          float64 `json:"protein_pct"`
	CarbsPct            float64 `json:"carbs_pct"`
	FatPct              float64 `json:"fat_pct"`
}

// Validate checks the settings invariants.
func (s *UserSettings) Validate() error {
	if s.DailyCaloriesTarget <= 0 {
		return fmt.Errorf("%w: daily calories target must be positive", ErrInvalidSettings)
	}
	sum := s.ProteinPct + s.CarbsPct + s.FatPct
	if sum < 99.99 || sum > 100.01 {
		return fmt.Errorf("%w: macro percentages sum to %.2f, want 100", ErrInvalidSettings, sum)
	}
	return nil
}

// ExpectedMacros are the per-day gram targets derived from UserSettings.
type ExpectedMacros struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// MacroTotals are resolved (single-value) macros, either for one entry at its
// portion level or aggregated over a day or week.
type MacroTotals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// SimilarMeal is a previously logged entry ranked against a query by
// embedding similarity with a recency bias applied.
type SimilarMeal struct {
	Entry              MealEntry `json:"entry"`
	Similarity         float64   `json:"similarity"`
	OriginalSimilarity float64   `json:"original_similarity"`
}
