package meals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitmenu/mealplanner/internal/access"
	"github.com/fitmenu/mealplanner/internal/apperr"
	"github.com/fitmenu/mealplanner/internal/storage"
)

// Service manages meal compositions: shared admin meals plus per-user
// meals, each a set of quantified ingredient rows.
type Service struct {
	meals       storage.MealsStorage
	ingredients storage.IngredientsStorage
}

func NewService(meals storage.MealsStorage, ingredients storage.IngredientsStorage) *Service {
	return &Service{meals: meals, ingredients: ingredients}
}

func (s *Service) Create(ctx context.Context, userID string, req CreateMealRequest) (*MealDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items, err := s.resolveItems(ctx, userID, req.Ingredients)
	if err != nil {
		return nil, err
	}

	servings := 1
	if req.Servings != nil {
		servings = *req.Servings
	}
	owner := userID
	meal := storage.Meal{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Recipe:      req.Recipe,
		MealSlot:    req.MealSlot,
		Date:        req.Date,
		Servings:    servings,
		OwnerUserID: &owner,
	}
	created, err := s.meals.CreateMeal(ctx, &meal, items)
	if err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}
	dto := toMealDTO(created)
	return &dto, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*MealDTO, error) {
	meal, found, err := s.meals.GetMeal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get meal: %w", err)
	}
	if !found || !access.CanRead(userID, meal.OwnerUserID) {
		return nil, apperr.NotFoundf("meal %s not found", id)
	}
	dto := toMealDTO(meal)
	return &dto, nil
}

// List returns admin meals plus the requester's own, newest first,
// optionally filtered by slot.
func (s *Service) List(ctx context.Context, userID string, slot string) ([]MealDTO, error) {
	var slotFilter *string
	if slot != "" {
		if !storage.ValidMealSlot(slot) {
			return nil, apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
		}
		slotFilter = &slot
	}
	rows, err := s.meals.ListMeals(ctx, userID, slotFilter)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return toMealDTOs(rows), nil
}

// ListByDate returns the requester's meals bound to one calendar date,
// ordered breakfast through snack.
func (s *Service) ListByDate(ctx context.Context, userID, date string) ([]MealDTO, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	rows, err := s.meals.ListMealsByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list meals by date: %w", err)
	}
	return toMealDTOs(rows), nil
}

func (s *Service) Update(ctx context.Context, userID, id string, req UpdateMealRequest) (*MealDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, found, err := s.meals.GetMeal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get meal: %w", err)
	}
	if !found || !access.CanRead(userID, existing.OwnerUserID) {
		return nil, apperr.NotFoundf("meal %s not found", id)
	}
	if !access.CanMutate(userID, existing.OwnerUserID) {
		return nil, apperr.Forbiddenf("meal %s is not editable", id)
	}

	meal := existing.Meal
	if req.Name != nil {
		meal.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		meal.Description = req.Description
	}
	if req.Recipe != nil {
		meal.Recipe = req.Recipe
	}
	if req.MealSlot != nil {
		meal.MealSlot = req.MealSlot
	}
	if req.Date != nil {
		meal.Date = req.Date
	}
	if req.Servings != nil {
		meal.Servings = *req.Servings
	}

	var items []storage.MealIngredientUpsert
	replaceItems := req.Ingredients != nil
	if replaceItems {
		items, err = s.resolveItems(ctx, userID, *req.Ingredients)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.meals.UpdateMeal(ctx, &meal, items, replaceItems)
	if err != nil {
		return nil, fmt.Errorf("update meal: %w", err)
	}
	dto := toMealDTO(updated)
	return &dto, nil
}

// Duplicate copies a readable meal into a personal one owned by the
// requester. The copy carries a date or slot only when the request sets
// one; the slot falls back to the original's.
func (s *Service) Duplicate(ctx context.Context, userID, id string, req DuplicateMealRequest) (*MealDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	original, found, err := s.meals.GetMeal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get meal: %w", err)
	}
	if !found || !access.CanRead(userID, original.OwnerUserID) {
		return nil, apperr.NotFoundf("meal %s not found", id)
	}

	slot := original.MealSlot
	if req.MealSlot != nil {
		slot = req.MealSlot
	}

	items := make([]storage.MealIngredientUpsert, 0, len(original.Ingredients))
	for _, item := range original.Ingredients {
		items = append(items, storage.MealIngredientUpsert{
			IngredientID:  item.IngredientID,
			QuantityGrams: item.QuantityGrams,
		})
	}

	owner := userID
	copy := storage.Meal{
		Name:        original.Name,
		Description: original.Description,
		Recipe:      original.Recipe,
		MealSlot:    slot,
		Date:        req.Date,
		Servings:    original.Servings,
		OwnerUserID: &owner,
	}
	created, err := s.meals.CreateMeal(ctx, &copy, items)
	if err != nil {
		return nil, fmt.Errorf("duplicate meal: %w", err)
	}
	dto := toMealDTO(created)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	meal, found, err := s.meals.GetMeal(ctx, id)
	if err != nil {
		return fmt.Errorf("get meal: %w", err)
	}
	if !found || !access.CanRead(userID, meal.OwnerUserID) {
		return apperr.NotFoundf("meal %s not found", id)
	}
	if !access.CanMutate(userID, meal.OwnerUserID) {
		return apperr.Forbiddenf("meal %s is not deletable", id)
	}
	if err := s.meals.DeleteMeal(ctx, id); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			count, countErr := s.meals.MealScheduledCount(ctx, id)
			if countErr != nil || count == 0 {
				return apperr.Conflictf("meal %s is still scheduled", id)
			}
			return apperr.Conflictf("meal %s is scheduled in %d calendar entries", id, count)
		}
		return fmt.Errorf("delete meal: %w", err)
	}
	return nil
}

// resolveItems checks every referenced ingredient exists and is readable
// by the requester before any row is written.
func (s *Service) resolveItems(ctx context.Context, userID string, inputs []MealItemInput) ([]storage.MealIngredientUpsert, error) {
	items := make([]storage.MealIngredientUpsert, 0, len(inputs))
	for _, input := range inputs {
		ing, found, err := s.ingredients.GetIngredient(ctx, input.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("get ingredient: %w", err)
		}
		if !found || !access.CanRead(userID, ing.OwnerUserID) {
			return nil, apperr.NotFoundf("ingredient %s not found", input.IngredientID)
		}
		items = append(items, storage.MealIngredientUpsert{
			IngredientID:  input.IngredientID,
			QuantityGrams: input.QuantityGrams,
		})
	}
	return items, nil
}

func toMealDTOs(rows []storage.MealWithIngredients) []MealDTO {
	dtos := make([]MealDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toMealDTO(row))
	}
	return dtos
}
