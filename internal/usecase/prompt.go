package usecase

import "fmt"

// BuildEstimationPrompt renders the meal-estimation prompt for a description.
// The task wording, canonical unit conversions, and the fixed calorie formula
// are part of the behavioral contract with the model; changing them changes
// what the validator downstream can reconcile.
func BuildEstimationPrompt(description string, specificRangePct, vagueRangePct int) string {
	return fmt.Sprintf(`You are a nutrition expert. Analyze this meal description and extract individual food items with quantities: %q.

## TASK 1 - ITEM DETECTION
Determine if description contains MULTIPLE SEPARATE foods or ONE compound food:

SPLIT into multiple items ONLY when:
- Comma-separated distinct foods: "Dos presas de pollo, un poco de ensalada" → 2 items
- "y"/"and" connecting different foods: "huevos y tocino" → 2 items
- Clearly separate accompaniments: "arroz con pollo y ensalada" → 3 items

DO NOT SPLIT (keep as ONE item):
- Food with topping/spread: "2 tostadas con mermelada" → 1 item (toast with jam, qty 2)
- Prepared dishes: "sandwich de jamón" → 1 item
- Food with sauce/dressing: "ensalada con aderezo" → 1 item
- Compound names: "huevos revueltos" → 1 item

The key: if "con/with" describes HOW the food is prepared/served, it's ONE item.
If items could be eaten separately, they are MULTIPLE items.

## TASK 2 - QUANTITY EXTRACTION
Extract explicit quantities and convert to standard units:
- "50g crackers" → quantity: 50, unit: "g"
- "Una cucharada de miel" / "1 spoon of honey" → quantity: 1, unit: "spoon"
- "2 huevos" / "two eggs" → quantity: 2, unit: "piece"
- "Un vaso de leche" / "a glass of milk" → quantity: 250, unit: "ml"
- "Una copa de vino" / "a glass of wine" → quantity: 1, unit: "portion" (standard serving)
- "Dos presas de pollo" → quantity: 2, unit: "piece"
- "Un poco de ensalada" → quantity: 1, unit: "portion" (small/light portion)
- No explicit quantity → quantity: 1, unit: "portion"

SUPPORTED UNITS (use these exact English values):
- "portion" - default for undefined amounts or servings
- "g" - grams
- "ml" - milliliters
- "spoon" - tablespoon/cucharada
- "piece" - individual countable items (eggs, fruits, chicken pieces)
- "cup" - cups/tazas

## TASK 3 - NAME NORMALIZATION
- Keep food name in the ORIGINAL language of the description
- Capitalize first letter only
- Remove quantity/unit from name: "50g crackers" → "Crackers"
- Remove leading articles: "una manzana" → "Manzana"
- Preserve important context as context_note:
  - "galleta de arroz instead of bread" → name: "Galleta de arroz", context_note: "instead of bread"
  - "pollo sin piel" → name: "Pollo sin piel", context_note: null (modifier is part of the food)
  - "2 sanguches (pero con galleta de arroz)" → name: "Sanguches con galleta de arroz", context_note: null

## TASK 4 - MACRO CALCULATION
For each item provide TWO sets of macros:

A) CURRENT MACROS - for the SPECIFIED quantity:
   - calories_min/max, protein_g_min/max, carbs_g_min/max, fat_g_min/max
   - alcohol_g, alcohol_calories (7 cal/g, NOT included in calories_min/max)

B) BASE MACROS - per 1 UNIT (for recalculation when user changes quantity):
   - base_calories_min/max, base_protein_g_min/max, etc.
   - If quantity is 50g, base macros are per 1g
   - If quantity is 2 pieces, base macros are per 1 piece

CALORIE FORMULA: calories = (protein_g * 4) + (carbs_g * 4) + (fat_g * 9)
DO NOT include alcohol in calories_min/max!

Example: "50g crackers" (roughly 200 cal for 50g)
- quantity: 50, unit: "g"
- calories_min: 190, calories_max: 210 (for 50g)
- base_calories_min: 3.8, base_calories_max: 4.2 (per 1g)

## UNCERTAINTY
- uncertainty=false: Specific quantities or named foods ("2 eggs", "chicken breast")
- uncertainty=true: Very vague descriptions ("pasta", "salad", "snack")

## RANGE SIZING
- Specific meals: ±%d%% ranges
- Less specific meals: ±%d%% ranges

Return JSON:
{
  "items": [
    {
      "normalized_name": "Food Name",
      "quantity": 1,
      "unit": "portion",
      "context_note": null,
      "calories_min": 0, "calories_max": 0,
      "protein_g_min": 0, "protein_g_max": 0,
      "carbs_g_min": 0, "carbs_g_max": 0,
      "fat_g_min": 0, "fat_g_max": 0,
      "alcohol_g": 0, "alcohol_calories": 0,
      "uncertainty": false,
      "base_calories_min": 0, "base_calories_max": 0,
      "base_protein_g_min": 0, "base_protein_g_max": 0,
      "base_carbs_g_min": 0, "base_carbs_g_max": 0,
      "base_fat_g_min": 0, "base_fat_g_max": 0,
      "base_alcohol_g": 0, "base_alcohol_calories": 0
    }
  ]
}`, description, specificRangePct, vagueRangePct)
}
