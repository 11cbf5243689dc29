package usecase

import (
	"strings"
	"testing"
)

func TestBuildEstimationPrompt(t *testing.T) {
	prompt := BuildEstimationPrompt("2 eggs", 20, 40)

	t.Run("embeds the description", func(t *testing.T) {
		if !strings.Contains(prompt, `"2 eggs"`) {
			t.Error("prompt does not contain the quoted description")
		}
	})

	t.Run("carries the calorie formula", func(t *testing.T) {
		if !strings.Contains(prompt, "(protein_g * 4) + (carbs_g * 4) + (fat_g * 9)") {
			t.Error("prompt does not state the calorie formula")
		}
		if !strings.Contains(prompt, "7 cal/g") {
			t.Error("prompt does not state the alcohol energy density")
		}
	})

	t.Run("lists every supported unit", func(t *testing.T) {
		for _, unit := range []string{`"portion"`, `"g"`, `"ml"`, `"spoon"`, `"piece"`, `"cup"`} {
			if !strings.Contains(prompt, unit) {
				t.Errorf("prompt is missing unit %s", unit)
			}
		}
	})

	t.Run("applies the range percentages", func(t *testing.T) {
		if !strings.Contains(prompt, "±20%") || !strings.Contains(prompt, "±40%") {
			t.Error("prompt does not carry the configured range percentages")
		}

		wide := BuildEstimationPrompt("2 eggs", 10, 50)
		if !strings.Contains(wide, "±10%") || !strings.Contains(wide, "±50%") {
			t.Error("custom range percentages not applied")
		}
	})

	t.Run("asks for base macros and uncertainty", func(t *testing.T) {
		for _, field := range []string{"base_calories_min", "base_alcohol_g", "uncertainty", "context_note"} {
			if !strings.Contains(prompt, field) {
				t.Errorf("prompt is missing field %s", field)
			}
		}
	})
}
