package storage

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by schedule writes when the target
// (user_id, date, meal_slot) cell is already occupied, and by deletes
// that would break a row still referenced elsewhere. Both backends must
// detect the collision inside the same transaction as the write — a
// separate check-then-insert is a race.
var ErrConflict = errors.New("storage conflict")

// Meal slots. Kept lowercase in the store and on the wire.
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"
)

// ValidMealSlot reports whether s names one of the four meal slots.
func ValidMealSlot(s string) bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		return true
	}
	return false
}

// SlotOrder returns the display ordering of a slot within a day
// (breakfast first). Unknown slots sort last.
func SlotOrder(s string) int {
	switch s {
	case SlotBreakfast:
		return 1
	case SlotLunch:
		return 2
	case SlotDinner:
		return 3
	case SlotSnack:
		return 4
	}
	return 5
}

// Ingredient — per-100g nutrient profile for a single food item.
// A nil OwnerUserID marks a system-provided ("admin") profile.
type Ingredient struct {
	ID              string
	Name            string
	Brand           *string
	Barcode         *string
	CaloriesPer100g float64
	ProteinPer100g  float64
	CarbsPer100g    float64
	FatPer100g      float64
	FiberPer100g    *float64
	SugarPer100g    *float64
	SodiumPer100g   *float64
	OwnerUserID     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Meal — a named composition of ingredients. Slot and date are optional:
// a meal without them is a reusable template. A nil OwnerUserID marks an
// admin-authored catalog meal.
type Meal struct {
	ID          string
	Name        string
	Description *string
	Recipe      *string
	MealSlot    *string // breakfast | lunch | dinner | snack
	Date        *string // YYYY-MM-DD
	Servings    int
	OwnerUserID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MealIngredient — quantity of one ingredient inside one meal.
// Owned by the meal; deleting the meal deletes its rows.
type MealIngredient struct {
	ID            string
	MealID        string
	IngredientID  string
	QuantityGrams float64
	CreatedAt     time.Time
}

// MealIngredientDetail pairs a meal ingredient row with its resolved profile.
type MealIngredientDetail struct {
	MealIngredient
	Ingredient Ingredient
}

// MealWithIngredients is a meal plus its resolved ingredient rows in
// insertion order.
type MealWithIngredients struct {
	Meal
	Ingredients []MealIngredientDetail
}

// MealIngredientUpsert — input for creating/replacing a meal's ingredient rows.
type MealIngredientUpsert struct {
	IngredientID  string
	QuantityGrams float64
}

// MealSchedule — one calendar cell: at most one row may exist per
// (UserID, Date, MealSlot) at any time.
type MealSchedule struct {
	ID        string
	UserID    string
	MealID    string
	Date      string // YYYY-MM-DD
	MealSlot  string
	Completed bool
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleFilter narrows ListSchedules. Date wins over the range pair.
type ScheduleFilter struct {
	Date      *string
	StartDate *string
	EndDate   *string
	MealSlot  *string
	Completed *bool
}

// ScheduleUpsert — one entry of a week bulk-replace payload.
type ScheduleUpsert struct {
	MealID   string
	Date     string
	MealSlot string
	Notes    *string
}

// IngredientsStorage stores nutrient profiles.
type IngredientsStorage interface {
	// CreateIngredient inserts a new profile (ID and timestamps set by the store).
	CreateIngredient(ctx context.Context, ingredient *Ingredient) error

	// GetIngredient returns a profile by id. bool=false means not found.
	GetIngredient(ctx context.Context, id string) (Ingredient, bool, error)

	// ListIngredients returns admin profiles plus userID's own, optionally
	// filtered by a case-insensitive search over name/brand, ordered by name.
	ListIngredients(ctx context.Context, userID string, search string) ([]Ingredient, error)

	// UpdateIngredient rewrites a profile's fields by ID.
	UpdateIngredient(ctx context.Context, ingredient *Ingredient) error

	// DeleteIngredient removes a profile. Returns ErrConflict while any
	// meal ingredient still references it.
	DeleteIngredient(ctx context.Context, id string) error
}

// MealsStorage stores meals and their ingredient rows. Multi-row writes
// are atomic: a meal is never observable without its ingredients.
type MealsStorage interface {
	// CreateMeal inserts the meal and its ingredient rows in one transaction.
	CreateMeal(ctx context.Context, meal *Meal, items []MealIngredientUpsert) (MealWithIngredients, error)

	// GetMeal returns a meal with resolved ingredients. bool=false means not found.
	GetMeal(ctx context.Context, id string) (MealWithIngredients, bool, error)

	// ListMeals returns admin-authored meals plus userID's own, newest first,
	// optionally filtered by slot.
	ListMeals(ctx context.Context, userID string, slot *string) ([]MealWithIngredients, error)

	// ListMealsByDate returns userID's meals bound to the given date, ordered by slot.
	ListMealsByDate(ctx context.Context, userID string, date string) ([]MealWithIngredients, error)

	// UpdateMeal rewrites the meal's fields; when replaceItems is true the
	// ingredient rows are atomically replaced with items (delete-then-insert
	// inside the same transaction).
	UpdateMeal(ctx context.Context, meal *Meal, items []MealIngredientUpsert, replaceItems bool) (MealWithIngredients, error)

	// DeleteMeal removes the meal; ingredient rows cascade. Returns
	// ErrConflict while any schedule still references the meal.
	DeleteMeal(ctx context.Context, id string) error

	// MealScheduledCount returns how many schedule rows reference the meal.
	// Used to report the size of a delete conflict.
	MealScheduledCount(ctx context.Context, mealID string) (int, error)
}

// MealSchedulesStorage stores calendar cells.
type MealSchedulesStorage interface {
	// CreateSchedule inserts a row, returning ErrConflict when the
	// (user, date, slot) cell is already occupied.
	CreateSchedule(ctx context.Context, schedule *MealSchedule) error

	// GetSchedule returns a row by id. bool=false means not found.
	GetSchedule(ctx context.Context, id string) (MealSchedule, bool, error)

	// ListSchedules returns userID's rows matching the filter, ordered by
	// date then slot.
	ListSchedules(ctx context.Context, userID string, filter ScheduleFilter) ([]MealSchedule, error)

	// UpdateSchedule rewrites a row by ID, returning ErrConflict when the
	// new (user, date, slot) cell collides with a row other than itself.
	UpdateSchedule(ctx context.Context, schedule *MealSchedule) error

	// DeleteSchedule removes a row.
	DeleteSchedule(ctx context.Context, id string) error

	// ReplaceWeek atomically deletes all of userID's rows with
	// startDate <= date <= endDate and inserts one row per entry.
	ReplaceWeek(ctx context.Context, userID string, startDate, endDate string, entries []ScheduleUpsert) ([]MealSchedule, error)
}

// Storage is the full backing store for the engine.
type Storage interface {
	IngredientsStorage
	MealsStorage
	MealSchedulesStorage

	// Close releases the underlying connections (no-op for memory).
	Close() error
}
