package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
)

// TolerancePolicy holds the reconciliation tolerances. The defaults are
// deliberately loose: the model is trusted on protein/carbs/fat grams, not on
// its own calorie arithmetic, so a reported calorie value within tolerance is
// simply overwritten with the macro-derived one.
type TolerancePolicy struct {
	Ratio            float64 // fraction of the expected value, default 0.5
	FoodFloorCals    float64 // minimum food-calorie tolerance, default 15
	AlcoholFloorCals float64 // minimum alcohol-calorie tolerance, default 10
}

// DefaultTolerancePolicy returns the production tolerances.
func DefaultTolerancePolicy() TolerancePolicy {
	return TolerancePolicy{Ratio: 0.5, FoodFloorCals: 15, AlcoholFloorCals: 10}
}

// RawEstimatedItem is one item of the model response before validation.
// Fields are loosely typed; the validator coerces and checks them.
type RawEstimatedItem map[string]interface{}

// ParseEstimate parses raw model output into unvalidated items. Markdown code
// fences around the JSON are tolerated. A payload that is not JSON, lacks an
// items array, or carries an empty one fails with ErrUnparsableResponse;
// "could not parse" and "parsed but inconsistent" stay distinct error kinds.
func ParseEstimate(raw string) ([]RawEstimatedItem, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var payload struct {
		Items []RawEstimatedItem `json:"items"`
	}
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableResponse, err)
	}

	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("%w: expected non-empty items array", domain.ErrUnparsableResponse)
	}

	return payload.Items, nil
}

// Validator checks structural invariants of a model response and reconciles
// the calorie fields against the fixed energy formula.
type Validator struct {
	policy TolerancePolicy
}

// NewValidator creates a validator; zero policy fields fall back to defaults.
func NewValidator(policy TolerancePolicy) *Validator {
	def := DefaultTolerancePolicy()
	if policy.Ratio == 0 {
		policy.Ratio = def.Ratio
	}
	if policy.FoodFloorCals == 0 {
		policy.FoodFloorCals = def.FoodFloorCals
	}
	if policy.AlcoholFloorCals == 0 {
		policy.AlcoholFloorCals = def.AlcoholFloorCals
	}
	return &Validator{policy: policy}
}

// ValidateAndReconcile validates every item and rewrites its calorie fields
// from the macro grams. Any structural violation or irreconcilable energy
// mismatch rejects the whole batch; callers never receive a partial item list.
func (v *Validator) ValidateAndReconcile(raw []RawEstimatedItem) ([]domain.FoodItemEstimate, error) {
	items := make([]domain.FoodItemEstimate, 0, len(raw))
	for _, ri := range raw {
		item, err := v.validateItem(ri)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (v *Validator) validateItem(raw RawEstimatedItem) (*domain.FoodItemEstimate, error) {
	// Some models emit "name" instead of "normalized_name".
	name, err := itemString(raw, "normalized_name", "name")
	if err != nil || name == "" {
		return nil, &domain.ItemValidationError{Field: "name", Reason: "missing or empty"}
	}

	quantity, err := itemNumber(raw, "quantity")
	if err != nil {
		return nil, &domain.ItemValidationError{ItemName: name, Field: "quantity", Reason: err.Error()}
	}
	if quantity <= 0 {
		return nil, &domain.ItemValidationError{ItemName: name, Field: "quantity", Reason: "must be positive"}
	}

	unitStr, err := itemString(raw, "unit")
	if err != nil {
		return nil, &domain.ItemValidationError{ItemName: name, Field: "unit", Reason: "missing"}
	}
	unit := domain.MealUnit(unitStr)
	if !unit.IsValid() {
		return nil, &domain.ItemValidationError{ItemName: name, Field: "unit", Reason: fmt.Sprintf("%q not supported", unitStr)}
	}

	current, err := itemRange(raw, name, "")
	if err != nil {
		return nil, err
	}
	alcoholG, alcoholCals, err := itemAlcohol(raw, name, "")
	if err != nil {
		return nil, err
	}

	uncertainty, ok := raw["uncertainty"].(bool)
	if !ok {
		return nil, &domain.ItemValidationError{ItemName: name, Field: "uncertainty", Reason: "missing or not a boolean"}
	}

	base, err := itemRange(raw, name, "base_")
	if err != nil {
		return nil, err
	}
	baseAlcoholG, _, err := itemAlcohol(raw, name, "base_")
	if err != nil {
		return nil, err
	}

	// Reconcile current calories against the macro-derived values.
	expectedMin := FoodCalories(current.ProteinGMin, current.CarbsGMin, current.FatGMin)
	expectedMax := FoodCalories(current.ProteinGMax, current.CarbsGMax, current.FatGMax)
	expectedAlcoholCals := math.Round(alcoholG * CaloriesPerGramAlcohol)

	toleranceMin := math.Max(expectedMin*v.policy.Ratio, v.policy.FoodFloorCals)
	toleranceMax := math.Max(expectedMax*v.policy.Ratio, v.policy.FoodFloorCals)
	alcoholTolerance := math.Max(expectedAlcoholCals*v.policy.Ratio, v.policy.AlcoholFloorCals)

	if math.Abs(current.CaloriesMin-expectedMin) > toleranceMin ||
		math.Abs(current.CaloriesMax-expectedMax) > toleranceMax ||
		math.Abs(alcoholCals-expectedAlcoholCals) > alcoholTolerance {
		return nil, &domain.EnergyMismatchError{
			ItemName:            name,
			ReportedCaloriesMin: current.CaloriesMin,
			ReportedCaloriesMax: current.CaloriesMax,
			ExpectedCaloriesMin: expectedMin,
			ExpectedCaloriesMax: expectedMax,
			ExpectedAlcoholCals: expectedAlcoholCals,
		}
	}

	current.CaloriesMin = math.Round(expectedMin)
	current.CaloriesMax = math.Round(expectedMax)
	alcoholCals = expectedAlcoholCals

	// Base values are reference quantities, not user-facing numbers, so they
	// are always overwritten. Two decimals, since per-unit amounts are often
	// fractional (e.g. per-gram).
	base.CaloriesMin = roundTo(FoodCalories(base.ProteinGMin, base.CarbsGMin, base.FatGMin), 2)
	base.CaloriesMax = roundTo(FoodCalories(base.ProteinGMax, base.CarbsGMax, base.FatGMax), 2)
	baseAlcoholCals := math.Round(baseAlcoholG * CaloriesPerGramAlcohol)

	var contextNote *string
	if s, ok := raw["context_note"].(string); ok {
		contextNote = &s
	}

	return &domain.FoodItemEstimate{
		Name:                name,
		Quantity:            quantity,
		Unit:                unit,
		ContextNote:         contextNote,
		Current:             *current,
		AlcoholG:            alcoholG,
		AlcoholCalories:     alcoholCals,
		Base:                *base,
		BaseAlcoholG:        baseAlcoholG,
		BaseAlcoholCalories: baseAlcoholCals,
		Uncertainty:         uncertainty,
	}, nil
}

// itemRange reads and checks one macro range. prefix selects the current
// ("") or base ("base_") field set.
func itemRange(raw RawEstimatedItem, name, prefix string) (*domain.MacroRange, error) {
	read := func(field string) (float64, error) {
		v, err := itemNumber(raw, prefix+field)
		if err != nil {
			return 0, &domain.ItemValidationError{ItemName: name, Field: prefix + field, Reason: err.Error()}
		}
		if v < 0 {
			return 0, &domain.ItemValidationError{ItemName: name, Field: prefix + field, Reason: "must not be negative"}
		}
		return v, nil
	}

	r := &domain.MacroRange{}
	pairs := []struct {
		min, max *float64
		minField string
		maxField string
	}{
		{&r.CaloriesMin, &r.CaloriesMax, "calories_min", "calories_max"},
		{&r.ProteinGMin, &r.ProteinGMax, "protein_g_min", "protein_g_max"},
		{&r.CarbsGMin, &r.CarbsGMax, "carbs_g_min", "carbs_g_max"},
		{&r.FatGMin, &r.FatGMax, "fat_g_min", "fat_g_max"},
	}
	for _, p := range pairs {
		min, err := read(p.minField)
		if err != nil {
			return nil, err
		}
		max, err := read(p.maxField)
		if err != nil {
			return nil, err
		}
		if max < min {
			return nil, &domain.ItemValidationError{ItemName: name, Field: prefix + p.maxField, Reason: "below the range minimum"}
		}
		*p.min, *p.max = min, max
	}
	return r, nil
}

func itemAlcohol(raw RawEstimatedItem, name, prefix string) (grams, calories float64, err error) {
	grams, err = itemNumber(raw, prefix+"alcohol_g")
	if err != nil || grams < 0 {
		return 0, 0, &domain.ItemValidationError{ItemName: name, Field: prefix + "alcohol_g", Reason: "missing or negative"}
	}
	calories, err = itemNumber(raw, prefix+"alcohol_calories")
	if err != nil || calories < 0 {
		return 0, 0, &domain.ItemValidationError{ItemName: name, Field: prefix + "alcohol_calories", Reason: "missing or negative"}
	}
	return grams, calories, nil
}

// itemString returns the first present key as a trimmed string.
func itemString(raw RawEstimatedItem, keys ...string) (string, error) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s), nil
			}
		}
	}
	return "", fmt.Errorf("missing field %s", keys[0])
}

// itemNumber coerces a field to float64. Absence is an error: silently
// defaulting missing macros to zero can mask a broken provider integration.
func itemNumber(raw RawEstimatedItem, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing")
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not numeric")
		}
		return f, nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not numeric")
	}
}
