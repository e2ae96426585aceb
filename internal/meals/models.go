package meals

import (
	"strings"
	"time"

	"github.com/fitmenu/mealplanner/internal/apperr"
	"github.com/fitmenu/mealplanner/internal/nutrition"
	"github.com/fitmenu/mealplanner/internal/storage"
)

// IngredientRef is the nutrient profile embedded in a meal ingredient row.
type IngredientRef struct {
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
}

type MealIngredientDTO struct {
	ID            string        `json:"id"`
	IngredientID  string        `json:"ingredient_id"`
	QuantityGrams float64       `json:"quantity_grams"`
	Ingredient    IngredientRef `json:"ingredient"`
}

// MealDTO is a meal with its ingredient rows and computed totals. The
// totals are flattened into the top level of the JSON object.
type MealDTO struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   *string             `json:"description,omitempty"`
	Recipe        *string             `json:"recipe,omitempty"`
	MealSlot      *string             `json:"meal_slot,omitempty"`
	Date          *string             `json:"date,omitempty"`
	Servings      int                 `json:"servings"`
	CreatedByType string              `json:"created_by_type"`
	Ingredients   []MealIngredientDTO `json:"ingredients"`
	nutrition.Totals
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MealItemInput struct {
	IngredientID  string  `json:"ingredient_id"`
	QuantityGrams float64 `json:"quantity_grams"`
}

type CreateMealRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Recipe      *string         `json:"recipe,omitempty"`
	MealSlot    *string         `json:"meal_slot,omitempty"`
	Date        *string         `json:"date,omitempty"`
	Servings    *int            `json:"servings,omitempty"`
	Ingredients []MealItemInput `json:"ingredients"`
}

func (r CreateMealRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validationf("name is required")
	}
	if r.MealSlot != nil && !storage.ValidMealSlot(*r.MealSlot) {
		return apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
	}
	if r.Date != nil {
		if err := validDate(*r.Date); err != nil {
			return err
		}
	}
	if r.Servings != nil && *r.Servings < 1 {
		return apperr.Validationf("servings must be >= 1")
	}
	return validateItems(r.Ingredients)
}

// UpdateMealRequest is a partial patch; nil fields keep their value.
// A non-nil Ingredients replaces the full ingredient list.
type UpdateMealRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Recipe      *string          `json:"recipe,omitempty"`
	MealSlot    *string          `json:"meal_slot,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Servings    *int             `json:"servings,omitempty"`
	Ingredients *[]MealItemInput `json:"ingredients,omitempty"`
}

func (r UpdateMealRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperr.Validationf("name must not be empty")
	}
	if r.MealSlot != nil && !storage.ValidMealSlot(*r.MealSlot) {
		return apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
	}
	if r.Date != nil {
		if err := validDate(*r.Date); err != nil {
			return err
		}
	}
	if r.Servings != nil && *r.Servings < 1 {
		return apperr.Validationf("servings must be >= 1")
	}
	if r.Ingredients != nil {
		return validateItems(*r.Ingredients)
	}
	return nil
}

type DuplicateMealRequest struct {
	MealSlot *string `json:"meal_slot,omitempty"`
	Date     *string `json:"date,omitempty"`
}

func (r DuplicateMealRequest) Validate() error {
	if r.MealSlot != nil && !storage.ValidMealSlot(*r.MealSlot) {
		return apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
	}
	if r.Date != nil {
		if err := validDate(*r.Date); err != nil {
			return err
		}
	}
	return nil
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperr.Validationf("date must be formatted YYYY-MM-DD")
	}
	return nil
}

func validateItems(items []MealItemInput) error {
	if len(items) == 0 {
		return apperr.Validationf("ingredients must not be empty")
	}
	for _, item := range items {
		if strings.TrimSpace(item.IngredientID) == "" {
			return apperr.Validationf("ingredients[].ingredient_id is required")
		}
		if item.QuantityGrams <= 0 {
			return apperr.Validationf("ingredients[].quantity_grams must be > 0")
		}
	}
	return nil
}

func toMealDTO(meal storage.MealWithIngredients) MealDTO {
	createdBy := "admin"
	if meal.OwnerUserID != nil {
		createdBy = "user"
	}
	rows := make([]MealIngredientDTO, 0, len(meal.Ingredients))
	for _, item := range meal.Ingredients {
		rows = append(rows, MealIngredientDTO{
			ID:            item.ID,
			IngredientID:  item.IngredientID,
			QuantityGrams: item.QuantityGrams,
			Ingredient: IngredientRef{
				ID:              item.Ingredient.ID,
				Name:            item.Ingredient.Name,
				Brand:           item.Ingredient.Brand,
				CaloriesPer100g: item.Ingredient.CaloriesPer100g,
				ProteinPer100g:  item.Ingredient.ProteinPer100g,
				CarbsPer100g:    item.Ingredient.CarbsPer100g,
				FatPer100g:      item.Ingredient.FatPer100g,
				FiberPer100g:    item.Ingredient.FiberPer100g,
				SugarPer100g:    item.Ingredient.SugarPer100g,
				SodiumPer100g:   item.Ingredient.SodiumPer100g,
			},
		})
	}
	return MealDTO{
		ID:            meal.ID,
		Name:          meal.Name,
		Description:   meal.Description,
		Recipe:        meal.Recipe,
		MealSlot:      meal.MealSlot,
		Date:          meal.Date,
		Servings:      meal.Servings,
		CreatedByType: createdBy,
		Ingredients:   rows,
		Totals:        nutrition.MealTotals(meal.Ingredients),
		CreatedAt:     meal.CreatedAt,
		UpdatedAt:     meal.UpdatedAt,
	}
}
