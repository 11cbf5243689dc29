package benchmark

import "github.com/mealtrack/backend/internal/domain"

// TestCases covers the scenarios the providers are scored on: simple single
// items with known macros, multi-item entries, Spanish descriptions, vague
// descriptions, explicit quantities, and alcohol.
var TestCases = []TestCase{
	{
		ID: "simple-1", Description: "2 eggs", Category: "simple",
		Expected: []ExpectedItem{{
			Name: "Eggs", Quantity: 2, Unit: domain.UnitPiece,
			Calories: Range{140, 180}, ProteinG: Range{11, 14}, CarbsG: Range{0, 2}, FatG: Range{9, 12},
		}},
	},
	{
		ID: "simple-2", Description: "1 banana", Category: "simple",
		Expected: []ExpectedItem{{
			Name: "Banana", Quantity: 1, Unit: domain.UnitPiece,
			Calories: Range{90, 120}, ProteinG: Range{1, 2}, CarbsG: Range{22, 30}, FatG: Range{0, 1},
		}},
	},
	{
		ID: "quantity-1", Description: "100g chicken breast", Category: "quantity",
		Expected: []ExpectedItem{{
			Name: "Chicken breast", Quantity: 100, Unit: domain.UnitGram,
			Calories: Range{150, 180}, ProteinG: Range{28, 35}, CarbsG: Range{0, 1}, FatG: Range{2, 5},
		}},
	},
	{
		ID: "quantity-2", Description: "50g crackers", Category: "quantity",
		Expected: []ExpectedItem{{
			Name: "Crackers", Quantity: 50, Unit: domain.UnitGram,
			Calories: Range{190, 250}, ProteinG: Range{4, 7}, CarbsG: Range{30, 42}, FatG: Range{6, 11},
		}},
	},
	{
		ID: "quantity-3", Description: "250ml milk", Category: "quantity",
		Expected: []ExpectedItem{{
			Name: "Milk", Quantity: 250, Unit: domain.UnitML,
			Calories: Range{100, 160}, ProteinG: Range{7, 10}, CarbsG: Range{11, 14}, FatG: Range{4, 9},
		}},
	},
	{
		ID: "spanish-1", Description: "Una cucharada de miel", Category: "spanish",
		Expected: []ExpectedItem{{
			Name: "Miel", Quantity: 1, Unit: domain.UnitSpoon,
			Calories: Range{55, 75}, ProteinG: Range{0, 1}, CarbsG: Range{15, 21}, FatG: Range{0, 0},
		}},
	},
	{
		ID: "spanish-2", Description: "Dos huevos fritos", Category: "spanish",
		Expected: []ExpectedItem{{
			Name: "Huevos fritos", Quantity: 2, Unit: domain.UnitPiece,
			Calories: Range{180, 240}, ProteinG: Range{11, 14}, CarbsG: Range{0, 2}, FatG: Range{14, 20},
		}},
	},
	{
		ID: "multi-1", Description: "Dos presas de pollo, un poco de ensalada", Category: "multi-item",
		Expected: []ExpectedItem{
			{
				Name: "Presas de pollo", Quantity: 2, Unit: domain.UnitPiece,
				Calories: Range{280, 400}, ProteinG: Range{35, 55}, CarbsG: Range{0, 3}, FatG: Range{12, 24},
			},
			{
				Name: "Ensalada", Quantity: 1, Unit: domain.UnitPortion,
				Calories: Range{20, 60}, ProteinG: Range{1, 3}, CarbsG: Range{3, 8}, FatG: Range{0, 4},
			},
		},
	},
	{
		ID: "multi-2", Description: "Arroz con pollo y ensalada", Category: "multi-item",
		Expected: []ExpectedItem{
			{
				Name: "Arroz", Quantity: 1, Unit: domain.UnitPortion,
				Calories: Range{150, 250}, ProteinG: Range{3, 6}, CarbsG: Range{35, 55}, FatG: Range{0, 2},
			},
			{
				Name: "Pollo", Quantity: 1, Unit: domain.UnitPortion,
				Calories: Range{150, 250}, ProteinG: Range{25, 40}, CarbsG: Range{0, 2}, FatG: Range{4, 12},
			},
			{
				Name: "Ensalada", Quantity: 1, Unit: domain.UnitPortion,
				Calories: Range{30, 80}, ProteinG: Range{1, 3}, CarbsG: Range{4, 10}, FatG: Range{0, 5},
			},
		},
	},
	{
		ID: "multi-3", Description: "Crackers con queso", Category: "multi-item",
		Expected: []ExpectedItem{
			{
				Name: "Crackers", Quantity: 1, Unit: domain.UnitPortion,
				Calories: Range{80, 140}, ProteinG: Range{1, 3}, CarbsG: Range{14, 22}, FatG: Range{2, 6},
			},
			{
				Name: "Queso", Quantity: 1, Unit: domain.UnitPortion,
				Calories: Range{80, 130}, ProteinG: Range{5, 8}, CarbsG: Range{0, 2}, FatG: Range{6, 10},
			},
		},
	},
	{
		ID: "vague-1", Description: "A salad", Category: "vague",
		Expected: []ExpectedItem{{
			Name: "Salad", Quantity: 1, Unit: domain.UnitPortion,
			Calories: Range{50, 200}, ProteinG: Range{2, 8}, CarbsG: Range{5, 20}, FatG: Range{2, 15},
		}},
	},
	{
		ID: "vague-2", Description: "Some pasta", Category: "vague",
		Expected: []ExpectedItem{{
			Name: "Pasta", Quantity: 1, Unit: domain.UnitPortion,
			Calories: Range{200, 450}, ProteinG: Range{7, 15}, CarbsG: Range{40, 80}, FatG: Range{2, 15},
		}},
	},
	{
		ID: "alcohol-1", Description: "1 light beer", Category: "alcohol",
		Expected: []ExpectedItem{{
			Name: "Light beer", Quantity: 1, Unit: domain.UnitPortion,
			Calories: Range{8, 20}, ProteinG: Range{0, 1}, CarbsG: Range{2, 5}, FatG: Range{0, 0},
			AlcoholG: 10,
		}},
	},
	{
		ID: "alcohol-2", Description: "Glass of red wine", Category: "alcohol",
		Expected: []ExpectedItem{{
			Name: "Red wine", Quantity: 1, Unit: domain.UnitPortion,
			Calories: Range{5, 20}, ProteinG: Range{0, 1}, CarbsG: Range{1, 5}, FatG: Range{0, 0},
			AlcoholG: 14,
		}},
	},
	{
		ID: "alcohol-3", Description: "Una cerveza", Category: "alcohol",
		Expected: []ExpectedItem{{
			Name: "Cerveza", Quantity: 1, Unit: domain.UnitPortion,
			Calories: Range{10, 30}, ProteinG: Range{0, 2}, CarbsG: Range{3, 10}, FatG: Range{0, 0},
			AlcoholG: 12,
		}},
	},
}

// TestCasesByCategory filters the dataset by category.
func TestCasesByCategory(category string) []TestCase {
	var out []TestCase
	for _, tc := range TestCases {
		if tc.Category == category {
			out = append(out, tc)
		}
	}
	return out
}
