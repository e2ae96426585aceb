package ingredients

import (
	"strings"
	"time"

	"github.com/fitmenu/mealplanner/internal/apperr"
	"github.com/fitmenu/mealplanner/internal/storage"
)

// IngredientDTO is the wire shape of a nutrient profile.
type IngredientDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Brand           *string   `json:"brand,omitempty"`
	Barcode         *string   `json:"barcode,omitempty"`
	CaloriesPer100g float64   `json:"calories_per_100g"`
	ProteinPer100g  float64   `json:"protein_per_100g"`
	CarbsPer100g    float64   `json:"carbs_per_100g"`
	FatPer100g      float64   `json:"fat_per_100g"`
	FiberPer100g    *float64  `json:"fiber_per_100g,omitempty"`
	SugarPer100g    *float64  `json:"sugar_per_100g,omitempty"`
	SodiumPer100g   *float64  `json:"sodium_per_100g,omitempty"`
	CreatedByType   string    `json:"created_by_type"` // "admin" or "user"
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateIngredientRequest struct {
	Name            string   `json:"name"`
	Brand           *string  `json:"brand,omitempty"`
	Barcode         *string  `json:"barcode,omitempty"`
	CaloriesPer100g float64  `json:"calories_per_100g"`
	ProteinPer100g  float64  `json:"protein_per_100g"`
	CarbsPer100g    float64  `json:"carbs_per_100g"`
	FatPer100g      float64  `json:"fat_per_100g"`
	FiberPer100g    *float64 `json:"fiber_per_100g,omitempty"`
	SugarPer100g    *float64 `json:"sugar_per_100g,omitempty"`
	SodiumPer100g   *float64 `json:"sodium_per_100g,omitempty"`
}

func (r CreateIngredientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validationf("name is required")
	}
	if r.CaloriesPer100g < 0 {
		return apperr.Validationf("calories_per_100g must be >= 0")
	}
	if r.ProteinPer100g < 0 {
		return apperr.Validationf("protein_per_100g must be >= 0")
	}
	if r.CarbsPer100g < 0 {
		return apperr.Validationf("carbs_per_100g must be >= 0")
	}
	if r.FatPer100g < 0 {
		return apperr.Validationf("fat_per_100g must be >= 0")
	}
	for field, v := range map[string]*float64{
		"fiber_per_100g":  r.FiberPer100g,
		"sugar_per_100g":  r.SugarPer100g,
		"sodium_per_100g": r.SodiumPer100g,
	} {
		if v != nil && *v < 0 {
			return apperr.Validationf("%s must be >= 0", field)
		}
	}
	return nil
}

// UpdateIngredientRequest is a partial patch; nil fields keep their value.
type UpdateIngredientRequest struct {
	Name            *string  `json:"name,omitempty"`
	Brand           *string  `json:"brand,omitempty"`
	Barcode         *string  `json:"barcode,omitempty"`
	CaloriesPer100g *float64 `json:"calories_per_100g,omitempty"`
	ProteinPer100g  *float64 `json:"protein_per_100g,omitempty"`
	CarbsPer100g    *float64 `json:"carbs_per_100g,omitempty"`
	FatPer100g      *float64 `json:"fat_per_100g,omitempty"`
	FiberPer100g    *float64 `json:"fiber_per_100g,omitempty"`
	SugarPer100g    *float64 `json:"sugar_per_100g,omitempty"`
	SodiumPer100g   *float64 `json:"sodium_per_100g,omitempty"`
}

func (r UpdateIngredientRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperr.Validationf("name must not be empty")
	}
	for field, v := range map[string]*float64{
		"calories_per_100g": r.CaloriesPer100g,
		"protein_per_100g":  r.ProteinPer100g,
		"carbs_per_100g":    r.CarbsPer100g,
		"fat_per_100g":      r.FatPer100g,
		"fiber_per_100g":    r.FiberPer100g,
		"sugar_per_100g":    r.SugarPer100g,
		"sodium_per_100g":   r.SodiumPer100g,
	} {
		if v != nil && *v < 0 {
			return apperr.Validationf("%s must be >= 0", field)
		}
	}
	return nil
}

func toDTO(ing storage.Ingredient) IngredientDTO {
	createdBy := "admin"
	if ing.OwnerUserID != nil {
		createdBy = "user"
	}
	return IngredientDTO{
		ID:              ing.ID,
		Name:            ing.Name,
		Brand:           ing.Brand,
		Barcode:         ing.Barcode,
		CaloriesPer100g: ing.CaloriesPer100g,
		ProteinPer100g:  ing.ProteinPer100g,
		CarbsPer100g:    ing.CarbsPer100g,
		FatPer100g:      ing.FatPer100g,
		FiberPer100g:    ing.FiberPer100g,
		SugarPer100g:    ing.SugarPer100g,
		SodiumPer100g:   ing.SodiumPer100g,
		CreatedByType:   createdBy,
		CreatedAt:       ing.CreatedAt,
		UpdatedAt:       ing.UpdatedAt,
	}
}
