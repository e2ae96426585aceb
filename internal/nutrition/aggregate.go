// Package nutrition derives meal- and day-level nutrient totals from
// ingredient quantities. Totals are never persisted: callers recompute
// them from current profile values on every read, so retroactive profile
// edits are always reflected.
package nutrition

import (
	"math"

	"github.com/fitmenu/mealplanner/internal/storage"
)

// Totals holds aggregated nutrient values, rounded to 2 decimal places.
// The required nutrients are always present (0 for an empty input).
// Optional nutrients are nil unless their unrounded sum is strictly
// greater than zero — nil means "no ingredient-level data", while a
// pointer to 0-adjacent values can never occur.
type Totals struct {
	Calories float64  `json:"total_calories"`
	Protein  float64  `json:"total_protein"`
	Carbs    float64  `json:"total_carbs"`
	Fat      float64  `json:"total_fat"`
	Fiber    *float64 `json:"total_fiber,omitempty"`
	Sugar    *float64 `json:"total_sugar,omitempty"`
	Sodium   *float64 `json:"total_sodium,omitempty"`
}

// MealTotals sums per-ingredient contributions: each nutrient total is
// Σ value_per_100g × quantity_grams / 100. Accumulation is unrounded;
// rounding happens once at the end so error does not compound across
// many ingredients.
func MealTotals(items []storage.MealIngredientDetail) Totals {
	var calories, protein, carbs, fat float64
	var fiber, sugar, sodium float64

	for _, item := range items {
		factor := item.QuantityGrams / 100
		ing := item.Ingredient

		calories += ing.CaloriesPer100g * factor
		protein += ing.ProteinPer100g * factor
		carbs += ing.CarbsPer100g * factor
		fat += ing.FatPer100g * factor

		// Missing optional values count as 0.
		if ing.FiberPer100g != nil {
			fiber += *ing.FiberPer100g * factor
		}
		if ing.SugarPer100g != nil {
			sugar += *ing.SugarPer100g * factor
		}
		if ing.SodiumPer100g != nil {
			sodium += *ing.SodiumPer100g * factor
		}
	}

	return Totals{
		Calories: Round2(calories),
		Protein:  Round2(protein),
		Carbs:    Round2(carbs),
		Fat:      Round2(fat),
		Fiber:    optional(fiber),
		Sugar:    optional(sugar),
		Sodium:   optional(sodium),
	}
}

// Sum rolls meal-level totals up into a day or week summary. The addends
// are the meals' already-rounded totals, not raw ingredient values, so a
// rollup always matches the sum of the numbers a client displays per meal.
func Sum(parts []Totals) Totals {
	var out Totals
	var fiber, sugar, sodium float64

	for _, p := range parts {
		out.Calories += p.Calories
		out.Protein += p.Protein
		out.Carbs += p.Carbs
		out.Fat += p.Fat
		if p.Fiber != nil {
			fiber += *p.Fiber
		}
		if p.Sugar != nil {
			sugar += *p.Sugar
		}
		if p.Sodium != nil {
			sodium += *p.Sodium
		}
	}

	out.Calories = Round2(out.Calories)
	out.Protein = Round2(out.Protein)
	out.Carbs = Round2(out.Carbs)
	out.Fat = Round2(out.Fat)
	out.Fiber = optional(fiber)
	out.Sugar = optional(sugar)
	out.Sodium = optional(sodium)
	return out
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func optional(sum float64) *float64 {
	if sum > 0 {
		v := Round2(sum)
		return &v
	}
	return nil
}
