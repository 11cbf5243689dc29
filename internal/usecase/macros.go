package usecase

import (
	"math"

	"github.com/mealtrack/backend/internal/domain"
)

// Calories per gram of each energy source.
const (
	CaloriesPerGramProtein = 4
	CaloriesPerGramCarbs   = 4
	CaloriesPerGramFat     = 9
	CaloriesPerGramAlcohol = 7
)

// FoodCalories applies the fixed energy formula to macro grams.
// Alcohol is never part of this; it is tracked separately at 7 kcal/g.
func FoodCalories(proteinG, carbsG, fatG float64) float64 {
	return proteinG*CaloriesPerGramProtein + carbsG*CaloriesPerGramCarbs + fatG*CaloriesPerGramFat
}

// ExpectedMacros derives per-day gram targets from the calorie target and
// percentage split. No rounding happens here; callers round for display.
func ExpectedMacros(settings *domain.UserSettings) domain.ExpectedMacros {
	calories := settings.DailyCaloriesTarget
	return domain.ExpectedMacros{
		Calories: calories,
		ProteinG: (calories * settings.ProteinPct / 100) / CaloriesPerGramProtein,
		CarbsG:   (calories * settings.CarbsPct / 100) / CaloriesPerGramCarbs,
		FatG:     (calories * settings.FatPct / 100) / CaloriesPerGramFat,
	}
}

// MealMacros resolves an entry's stored ranges at its portion level. Alcohol
// calories live outside the stored range and are added at read time.
func MealMacros(entry *domain.MealEntry) domain.MacroTotals {
	level := entry.Portion
	r := entry.Current
	return domain.MacroTotals{
		Calories: level.Resolve(r.CaloriesMin, r.CaloriesMax) + entry.AlcoholCals,
		ProteinG: level.Resolve(r.ProteinGMin, r.ProteinGMax),
		CarbsG:   level.Resolve(r.CarbsGMin, r.CarbsGMax),
		FatG:     level.Resolve(r.FatGMin, r.FatGMax),
	}
}

// WeeklyRebalance computes the per-remaining-day calorie adjustment for the
// current week. A positive result means the user may eat more per remaining
// day; negative means eat less.
func WeeklyRebalance(actualTotal, expectedWeeklyTotal float64, daysElapsed, daysRemaining int) int {
	if daysRemaining <= 0 {
		return 0
	}

	expectedSoFar := expectedWeeklyTotal / 7 * float64(daysElapsed)
	delta := actualTotal - expectedSoFar
	adjustment := int(math.Round(-delta / float64(daysRemaining)))

	// math.Round(-0.3) is -0; keep the zero unsigned
	if adjustment == 0 {
		return 0
	}
	return adjustment
}

// AverageDeltaPerCompletedDay reports how far the daily average over the
// elapsed days runs above (positive) or below (negative) the per-day target,
// rounded to the given number of decimals. Zero elapsed days yields 0.
func AverageDeltaPerCompletedDay(actualCompleted, expectedPerDay float64, daysElapsed, precisionDecimals int) float64 {
	if daysElapsed == 0 {
		return 0
	}
	delta := actualCompleted/float64(daysElapsed) - expectedPerDay
	return roundTo(delta, precisionDecimals)
}

// roundTo rounds v half away from zero at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
