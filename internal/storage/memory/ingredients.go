package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/google/uuid"
)

type ingredientsStorage struct {
	mu          sync.RWMutex
	ingredients map[string]*storage.Ingredient // key: ingredient id

	// set after construction; used for the referenced-by-meal check
	meals *mealsStorage
}

func newIngredientsStorage() *ingredientsStorage {
	return &ingredientsStorage{
		ingredients: make(map[string]*storage.Ingredient),
	}
}

func (s *ingredientsStorage) CreateIngredient(ctx context.Context, ingredient *storage.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if ingredient.ID == "" {
		ingredient.ID = uuid.New().String()
	}
	ingredient.CreatedAt = now
	ingredient.UpdatedAt = now

	copied := *ingredient
	s.ingredients[ingredient.ID] = &copied
	return nil
}

func (s *ingredientsStorage) GetIngredient(ctx context.Context, id string) (storage.Ingredient, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return storage.Ingredient{}, false, nil
	}
	return *ing, true, nil
}

func (s *ingredientsStorage) ListIngredients(ctx context.Context, userID string, search string) ([]storage.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))

	result := make([]storage.Ingredient, 0)
	for _, ing := range s.ingredients {
		if ing.OwnerUserID != nil && *ing.OwnerUserID != userID {
			continue
		}
		if search != "" && !ingredientMatches(ing, search) {
			continue
		}
		result = append(result, *ing)
	}

	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

func (s *ingredientsStorage) UpdateIngredient(ctx context.Context, ingredient *storage.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.ingredients[ingredient.ID]
	if !ok {
		return nil
	}

	ingredient.CreatedAt = existing.CreatedAt
	ingredient.UpdatedAt = time.Now().UTC()
	copied := *ingredient
	s.ingredients[ingredient.ID] = &copied
	return nil
}

func (s *ingredientsStorage) DeleteIngredient(ctx context.Context, id string) error {
	if s.ingredientInUse(id) {
		return storage.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ingredients, id)
	return nil
}

func (s *ingredientsStorage) ingredientInUse(id string) bool {
	if s.meals == nil {
		return false
	}
	return s.meals.ingredientReferenced(id)
}

func ingredientMatches(ing *storage.Ingredient, search string) bool {
	if strings.Contains(strings.ToLower(ing.Name), search) {
		return true
	}
	if ing.Brand != nil && strings.Contains(strings.ToLower(*ing.Brand), search) {
		return true
	}
	return false
}
