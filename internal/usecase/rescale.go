package usecase

import (
	"math"

	"github.com/mealtrack/backend/internal/domain"
)

// RescaledMacros is the result of re-deriving an entry's current values from
// its per-unit base macros after a quantity change.
type RescaledMacros struct {
	Current         domain.MacroRange
	AlcoholG        float64
	AlcoholCalories float64
}

// Rescale derives the current macro range for a new quantity from per-unit
// base values. Calories round to integers, gram values to one decimal; the
// magnitudes differ enough that uniform precision would either lose calorie
// resolution or invent gram precision. No unit conversion is attempted; when
// the unit changes alongside the quantity, the caller supplies a quantity
// already expressed in the new unit.
func Rescale(entry *domain.MealEntry, quantity float64) (*RescaledMacros, error) {
	if entry.Base == nil {
		// Legacy entries predate base tracking; refusing beats guessing.
		return nil, domain.ErrMissingBaseMacros
	}

	base := entry.Base
	return &RescaledMacros{
		Current: domain.MacroRange{
			CaloriesMin: math.Round(base.CaloriesMin * quantity),
			CaloriesMax: math.Round(base.CaloriesMax * quantity),
			ProteinGMin: roundTo(base.ProteinGMin*quantity, 1),
			ProteinGMax: roundTo(base.ProteinGMax*quantity, 1),
			CarbsGMin:   roundTo(base.CarbsGMin*quantity, 1),
			CarbsGMax:   roundTo(base.CarbsGMax*quantity, 1),
			FatGMin:     roundTo(base.FatGMin*quantity, 1),
			FatGMax:     roundTo(base.FatGMax*quantity, 1),
		},
		AlcoholG:        roundTo(entry.BaseAlcohol*quantity, 1),
		AlcoholCalories: math.Round(entry.BaseAlcohol * quantity * CaloriesPerGramAlcohol),
	}, nil
}
