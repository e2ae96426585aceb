package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/google/uuid"
)

type mealsStorage struct {
	mu    sync.RWMutex
	meals map[string]*storage.Meal           // key: meal id
	items map[string][]storage.MealIngredient // key: meal id, in insertion order

	ingredients *ingredientsStorage
	// set after construction; used for the still-scheduled check
	schedules *schedulesStorage
}

func newMealsStorage(ingredients *ingredientsStorage) *mealsStorage {
	return &mealsStorage{
		meals:       make(map[string]*storage.Meal),
		items:       make(map[string][]storage.MealIngredient),
		ingredients: ingredients,
	}
}

func (s *mealsStorage) CreateMeal(ctx context.Context, meal *storage.Meal, items []storage.MealIngredientUpsert) (storage.MealWithIngredients, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if meal.ID == "" {
		meal.ID = uuid.New().String()
	}
	meal.CreatedAt = now
	meal.UpdatedAt = now

	copied := *meal
	s.meals[meal.ID] = &copied
	s.items[meal.ID] = buildItems(meal.ID, items, now)

	return s.withIngredientsLocked(&copied), nil
}

func (s *mealsStorage) GetMeal(ctx context.Context, id string) (storage.MealWithIngredients, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meal, ok := s.meals[id]
	if !ok {
		return storage.MealWithIngredients{}, false, nil
	}
	return s.withIngredientsLocked(meal), true, nil
}

func (s *mealsStorage) ListMeals(ctx context.Context, userID string, slot *string) ([]storage.MealWithIngredients, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.MealWithIngredients, 0)
	for _, meal := range s.meals {
		if meal.OwnerUserID != nil && *meal.OwnerUserID != userID {
			continue
		}
		if slot != nil && (meal.MealSlot == nil || *meal.MealSlot != *slot) {
			continue
		}
		result = append(result, s.withIngredientsLocked(meal))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *mealsStorage) ListMealsByDate(ctx context.Context, userID string, date string) ([]storage.MealWithIngredients, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.MealWithIngredients, 0)
	for _, meal := range s.meals {
		if meal.OwnerUserID == nil || *meal.OwnerUserID != userID {
			continue
		}
		if meal.Date == nil || *meal.Date != date {
			continue
		}
		result = append(result, s.withIngredientsLocked(meal))
	}

	sort.Slice(result, func(i, j int) bool {
		return slotOrderOf(result[i].MealSlot) < slotOrderOf(result[j].MealSlot)
	})
	return result, nil
}

func (s *mealsStorage) UpdateMeal(ctx context.Context, meal *storage.Meal, items []storage.MealIngredientUpsert, replaceItems bool) (storage.MealWithIngredients, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.meals[meal.ID]
	if !ok {
		return storage.MealWithIngredients{}, nil
	}

	now := time.Now().UTC()
	meal.CreatedAt = existing.CreatedAt
	meal.UpdatedAt = now

	copied := *meal
	s.meals[meal.ID] = &copied
	if replaceItems {
		s.items[meal.ID] = buildItems(meal.ID, items, now)
	}

	return s.withIngredientsLocked(&copied), nil
}

func (s *mealsStorage) DeleteMeal(ctx context.Context, id string) error {
	if s.schedules != nil && s.schedules.mealReferenced(id) {
		return storage.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.meals, id)
	delete(s.items, id)
	return nil
}

func (s *mealsStorage) MealScheduledCount(ctx context.Context, mealID string) (int, error) {
	if s.schedules == nil {
		return 0, nil
	}
	return s.schedules.mealReferenceCount(mealID), nil
}

// ingredientReferenced reports whether any meal ingredient row points at
// the given profile.
func (s *mealsStorage) ingredientReferenced(ingredientID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rows := range s.items {
		for _, row := range rows {
			if row.IngredientID == ingredientID {
				return true
			}
		}
	}
	return false
}

func (s *mealsStorage) withIngredientsLocked(meal *storage.Meal) storage.MealWithIngredients {
	rows := s.items[meal.ID]
	details := make([]storage.MealIngredientDetail, 0, len(rows))
	for _, row := range rows {
		detail := storage.MealIngredientDetail{MealIngredient: row}
		if s.ingredients != nil {
			if ing, ok, _ := s.ingredients.GetIngredient(context.Background(), row.IngredientID); ok {
				detail.Ingredient = ing
			}
		}
		details = append(details, detail)
	}
	return storage.MealWithIngredients{Meal: *meal, Ingredients: details}
}

func buildItems(mealID string, items []storage.MealIngredientUpsert, now time.Time) []storage.MealIngredient {
	rows := make([]storage.MealIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, storage.MealIngredient{
			ID:            uuid.New().String(),
			MealID:        mealID,
			IngredientID:  item.IngredientID,
			QuantityGrams: item.QuantityGrams,
			CreatedAt:     now,
		})
	}
	return rows
}

func slotOrderOf(slot *string) int {
	if slot == nil {
		return 0
	}
	return storage.SlotOrder(*slot)
}
