// Package memory is the in-memory storage backend. It is used when no
// DATABASE_URL is configured and by the handler tests. All sub-stores
// serialize writes with a mutex, so check-then-insert conflict detection
// is atomic the same way the Postgres unique constraint is.
package memory

import (
	"github.com/fitmenu/mealplanner/internal/storage"
)

// MemoryStorage implements storage.Storage.
type MemoryStorage struct {
	*ingredientsStorage
	*mealsStorage
	*schedulesStorage
}

// New creates an empty MemoryStorage. The sub-stores are cross-wired so
// referential checks (ingredient in use, meal scheduled) see each other.
func New() *MemoryStorage {
	ingredients := newIngredientsStorage()
	meals := newMealsStorage(ingredients)
	schedules := newSchedulesStorage()

	ingredients.meals = meals
	meals.schedules = schedules

	return &MemoryStorage{
		ingredientsStorage: ingredients,
		mealsStorage:       meals,
		schedulesStorage:   schedules,
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

var _ storage.Storage = (*MemoryStorage)(nil)
