package schedules

import (
	"strings"
	"time"

	"github.com/fitmenu/mealplanner/internal/apperr"
	"github.com/fitmenu/mealplanner/internal/nutrition"
	"github.com/fitmenu/mealplanner/internal/storage"
)

// ScheduledIngredientDTO is one quantified ingredient row inside the
// meal carried by a schedule entry.
type ScheduledIngredientDTO struct {
	ID            string  `json:"id"`
	QuantityGrams float64 `json:"quantity_grams"`
	Ingredient    struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		Brand           *string  `json:"brand,omitempty"`
		CaloriesPer100g float64  `json:"calories_per_100g"`
		ProteinPer100g  float64  `json:"protein_per_100g"`
		CarbsPer100g    float64  `json:"carbs_per_100g"`
		FatPer100g      float64  `json:"fat_per_100g"`
		FiberPer100g    *float64 `json:"fiber_per_100g,omitempty"`
		SugarPer100g    *float64 `json:"sugar_per_100g,omitempty"`
		SodiumPer100g   *float64 `json:"sodium_per_100g,omitempty"`
	} `json:"ingredient"`
}

// ScheduledMealDTO is the meal as seen from a calendar cell: name,
// rows and computed totals, without the meal's own slot/date binding.
type ScheduledMealDTO struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description *string                  `json:"description,omitempty"`
	Recipe      *string                  `json:"recipe,omitempty"`
	Servings    int                      `json:"servings"`
	Ingredients []ScheduledIngredientDTO `json:"ingredients"`
	nutrition.Totals
}

type ScheduleDTO struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	MealID    string           `json:"meal_id"`
	Date      string           `json:"date"`
	MealSlot  string           `json:"meal_slot"`
	Completed bool             `json:"completed"`
	Notes     *string          `json:"notes,omitempty"`
	Meal      ScheduledMealDTO `json:"meal"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DayNutritionDTO is the rollup over one day's scheduled meals.
type DayNutritionDTO struct {
	nutrition.Totals
	MealsCount     int `json:"meals_count"`
	CompletedMeals int `json:"completed_meals"`
}

// WeekDayDTO is one of the seven entries of a week view. Days without
// schedules are present with an empty list and a zeroed rollup.
type WeekDayDTO struct {
	Date      string          `json:"date"`
	DayOfWeek string          `json:"day_of_week"`
	Schedules []ScheduleDTO   `json:"schedules"`
	Nutrition DayNutritionDTO `json:"nutrition"`
}

type CreateScheduleRequest struct {
	MealID   string  `json:"meal_id"`
	Date     string  `json:"date"`
	MealSlot string  `json:"meal_slot"`
	Notes    *string `json:"notes,omitempty"`
}

func (r CreateScheduleRequest) Validate() error {
	if strings.TrimSpace(r.MealID) == "" {
		return apperr.Validationf("meal_id is required")
	}
	if err := validDate(r.Date); err != nil {
		return err
	}
	if !storage.ValidMealSlot(r.MealSlot) {
		return apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
	}
	return nil
}

// UpdateScheduleRequest is a partial patch; nil fields keep their value.
type UpdateScheduleRequest struct {
	MealID    *string `json:"meal_id,omitempty"`
	Date      *string `json:"date,omitempty"`
	MealSlot  *string `json:"meal_slot,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

func (r UpdateScheduleRequest) Validate() error {
	if r.MealID != nil && strings.TrimSpace(*r.MealID) == "" {
		return apperr.Validationf("meal_id must not be empty")
	}
	if r.Date != nil {
		if err := validDate(*r.Date); err != nil {
			return err
		}
	}
	if r.MealSlot != nil && !storage.ValidMealSlot(*r.MealSlot) {
		return apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
	}
	return nil
}

// WeekEntry is one cell of a week-replace payload.
type WeekEntry struct {
	MealID   string  `json:"meal_id"`
	Date     string  `json:"date"`
	MealSlot string  `json:"meal_slot"`
	Notes    *string `json:"notes,omitempty"`
}

// ReplaceWeekRequest replaces every schedule in the week starting at
// StartDate. An empty Entries list clears the week.
type ReplaceWeekRequest struct {
	StartDate string      `json:"start_date"`
	Entries   []WeekEntry `json:"entries"`
}

func (r ReplaceWeekRequest) Validate() error {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return apperr.Validationf("start_date must be formatted YYYY-MM-DD")
	}
	end := start.AddDate(0, 0, 6)

	seen := make(map[string]struct{}, len(r.Entries))
	for _, entry := range r.Entries {
		if strings.TrimSpace(entry.MealID) == "" {
			return apperr.Validationf("entries[].meal_id is required")
		}
		day, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return apperr.Validationf("entries[].date must be formatted YYYY-MM-DD")
		}
		if day.Before(start) || day.After(end) {
			return apperr.Validationf("entry date %s is outside the week starting %s", entry.Date, r.StartDate)
		}
		if !storage.ValidMealSlot(entry.MealSlot) {
			return apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
		}
		cell := entry.Date + ":" + entry.MealSlot
		if _, dup := seen[cell]; dup {
			return apperr.Validationf("duplicate entry for %s %s", entry.Date, entry.MealSlot)
		}
		seen[cell] = struct{}{}
	}
	return nil
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperr.Validationf("date must be formatted YYYY-MM-DD")
	}
	return nil
}

func toScheduledMealDTO(meal storage.MealWithIngredients) ScheduledMealDTO {
	rows := make([]ScheduledIngredientDTO, 0, len(meal.Ingredients))
	for _, item := range meal.Ingredients {
		var row ScheduledIngredientDTO
		row.ID = item.ID
		row.QuantityGrams = item.QuantityGrams
		row.Ingredient.ID = item.Ingredient.ID
		row.Ingredient.Name = item.Ingredient.Name
		row.Ingredient.Brand = item.Ingredient.Brand
		row.Ingredient.CaloriesPer100g = item.Ingredient.CaloriesPer100g
		row.Ingredient.ProteinPer100g = item.Ingredient.ProteinPer100g
		row.Ingredient.CarbsPer100g = item.Ingredient.CarbsPer100g
		row.Ingredient.FatPer100g = item.Ingredient.FatPer100g
		row.Ingredient.FiberPer100g = item.Ingredient.FiberPer100g
		row.Ingredient.SugarPer100g = item.Ingredient.SugarPer100g
		row.Ingredient.SodiumPer100g = item.Ingredient.SodiumPer100g
		rows = append(rows, row)
	}
	return ScheduledMealDTO{
		ID:          meal.ID,
		Name:        meal.Name,
		Description: meal.Description,
		Recipe:      meal.Recipe,
		Servings:    meal.Servings,
		Ingredients: rows,
		Totals:      nutrition.MealTotals(meal.Ingredients),
	}
}

func toScheduleDTO(row storage.MealSchedule, meal storage.MealWithIngredients) ScheduleDTO {
	return ScheduleDTO{
		ID:        row.ID,
		UserID:    row.UserID,
		MealID:    row.MealID,
		Date:      row.Date,
		MealSlot:  row.MealSlot,
		Completed: row.Completed,
		Notes:     row.Notes,
		Meal:      toScheduledMealDTO(meal),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
