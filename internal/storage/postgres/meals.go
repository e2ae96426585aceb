package postgres

import (
	"context"
	"fmt"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mealsStorage struct {
	pool *pgxpool.Pool
}

func newMealsStorage(pool *pgxpool.Pool) *mealsStorage {
	return &mealsStorage{pool: pool}
}

const mealColumns = `
	id, name, description, recipe, meal_slot, date::text, servings,
	owner_user_id, created_at, updated_at
`

func scanMeal(row pgx.Row) (storage.Meal, error) {
	var meal storage.Meal
	err := row.Scan(
		&meal.ID,
		&meal.Name,
		&meal.Description,
		&meal.Recipe,
		&meal.MealSlot,
		&meal.Date,
		&meal.Servings,
		&meal.OwnerUserID,
		&meal.CreatedAt,
		&meal.UpdatedAt,
	)
	return meal, err
}

func (s *mealsStorage) CreateMeal(ctx context.Context, meal *storage.Meal, items []storage.MealIngredientUpsert) (storage.MealWithIngredients, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO meals (name, description, recipe, meal_slot, date, servings, owner_user_id)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7)
		RETURNING ` + mealColumns

	created, err := scanMeal(tx.QueryRow(ctx, query,
		meal.Name,
		meal.Description,
		meal.Recipe,
		meal.MealSlot,
		meal.Date,
		meal.Servings,
		meal.OwnerUserID,
	))
	if err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("failed to create meal: %w", err)
	}

	if err := insertMealItems(ctx, tx, created.ID, items); err != nil {
		return storage.MealWithIngredients{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	*meal = created
	return s.loadMeal(ctx, created.ID)
}

func (s *mealsStorage) GetMeal(ctx context.Context, id string) (storage.MealWithIngredients, bool, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = $1`

	meal, err := scanMeal(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return storage.MealWithIngredients{}, false, nil
	}
	if err != nil {
		return storage.MealWithIngredients{}, false, fmt.Errorf("failed to get meal: %w", err)
	}

	items, err := s.loadItems(ctx, []string{meal.ID})
	if err != nil {
		return storage.MealWithIngredients{}, false, err
	}
	return storage.MealWithIngredients{Meal: meal, Ingredients: items[meal.ID]}, true, nil
}

func (s *mealsStorage) ListMeals(ctx context.Context, userID string, slot *string) ([]storage.MealWithIngredients, error) {
	query := `
		SELECT ` + mealColumns + `
		FROM meals
		WHERE (owner_user_id IS NULL OR owner_user_id = $1)
		  AND ($2::text IS NULL OR meal_slot = $2)
		ORDER BY created_at DESC
	`
	return s.queryMeals(ctx, query, userID, slot)
}

func (s *mealsStorage) ListMealsByDate(ctx context.Context, userID string, date string) ([]storage.MealWithIngredients, error) {
	query := `
		SELECT ` + mealColumns + `
		FROM meals
		WHERE owner_user_id = $1 AND date = $2::date
		ORDER BY
			CASE meal_slot
				WHEN 'breakfast' THEN 1
				WHEN 'lunch' THEN 2
				WHEN 'dinner' THEN 3
				WHEN 'snack' THEN 4
				ELSE 5
			END
	`
	return s.queryMeals(ctx, query, userID, date)
}

func (s *mealsStorage) UpdateMeal(ctx context.Context, meal *storage.Meal, items []storage.MealIngredientUpsert, replaceItems bool) (storage.MealWithIngredients, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE meals
		SET name = $2, description = $3, recipe = $4, meal_slot = $5,
		    date = $6::date, servings = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + mealColumns

	updated, err := scanMeal(tx.QueryRow(ctx, query,
		meal.ID,
		meal.Name,
		meal.Description,
		meal.Recipe,
		meal.MealSlot,
		meal.Date,
		meal.Servings,
	))
	if err == pgx.ErrNoRows {
		return storage.MealWithIngredients{}, nil
	}
	if err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("failed to update meal: %w", err)
	}

	if replaceItems {
		// Full replace inside the transaction: the intermediate empty
		// state is never durable.
		if _, err := tx.Exec(ctx, `DELETE FROM meal_ingredients WHERE meal_id = $1`, meal.ID); err != nil {
			return storage.MealWithIngredients{}, fmt.Errorf("failed to delete meal ingredients: %w", err)
		}
		if err := insertMealItems(ctx, tx, meal.ID, items); err != nil {
			return storage.MealWithIngredients{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	*meal = updated
	return s.loadMeal(ctx, meal.ID)
}

func (s *mealsStorage) DeleteMeal(ctx context.Context, id string) error {
	// meal_ingredients cascade; the RESTRICT foreign key from
	// meal_schedules rejects deleting a meal that is still scheduled.
	_, err := s.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		if translated := translateConstraint(err); translated == storage.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

func (s *mealsStorage) MealScheduledCount(ctx context.Context, mealID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM meal_schedules WHERE meal_id = $1`, mealID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count meal schedules: %w", err)
	}
	return count, nil
}

func (s *mealsStorage) queryMeals(ctx context.Context, query string, args ...interface{}) ([]storage.MealWithIngredients, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	meals := make([]storage.Meal, 0)
	ids := make([]string, 0)
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, meal)
		ids = append(ids, meal.ID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating meals: %w", rows.Err())
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]storage.MealWithIngredients, 0, len(meals))
	for _, meal := range meals {
		result = append(result, storage.MealWithIngredients{Meal: meal, Ingredients: items[meal.ID]})
	}
	return result, nil
}

func (s *mealsStorage) loadMeal(ctx context.Context, id string) (storage.MealWithIngredients, error) {
	meal, found, err := s.GetMeal(ctx, id)
	if err != nil {
		return storage.MealWithIngredients{}, err
	}
	if !found {
		return storage.MealWithIngredients{}, fmt.Errorf("meal %s vanished after write", id)
	}
	return meal, nil
}

// loadItems fetches the ingredient rows with resolved profiles for a set
// of meals, keyed by meal id, in insertion order.
func (s *mealsStorage) loadItems(ctx context.Context, mealIDs []string) (map[string][]storage.MealIngredientDetail, error) {
	result := make(map[string][]storage.MealIngredientDetail, len(mealIDs))
	if len(mealIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT mi.id, mi.meal_id, mi.ingredient_id, mi.quantity_grams, mi.created_at,
		       ` + prefixedIngredientColumns("i") + `
		FROM meal_ingredients mi
		INNER JOIN ingredients i ON i.id = mi.ingredient_id
		WHERE mi.meal_id = ANY($1)
		ORDER BY mi.position
	`

	rows, err := s.pool.Query(ctx, query, mealIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var detail storage.MealIngredientDetail
		err := rows.Scan(
			&detail.ID,
			&detail.MealID,
			&detail.IngredientID,
			&detail.QuantityGrams,
			&detail.CreatedAt,
			&detail.Ingredient.ID,
			&detail.Ingredient.Name,
			&detail.Ingredient.Brand,
			&detail.Ingredient.Barcode,
			&detail.Ingredient.CaloriesPer100g,
			&detail.Ingredient.ProteinPer100g,
			&detail.Ingredient.CarbsPer100g,
			&detail.Ingredient.FatPer100g,
			&detail.Ingredient.FiberPer100g,
			&detail.Ingredient.SugarPer100g,
			&detail.Ingredient.SodiumPer100g,
			&detail.Ingredient.OwnerUserID,
			&detail.Ingredient.CreatedAt,
			&detail.Ingredient.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal ingredient: %w", err)
		}
		result[detail.MealID] = append(result[detail.MealID], detail)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating meal ingredients: %w", rows.Err())
	}
	return result, nil
}

func insertMealItems(ctx context.Context, tx pgx.Tx, mealID string, items []storage.MealIngredientUpsert) error {
	// created_at is the transaction timestamp for every row, so an
	// explicit position column carries the insertion order.
	query := `
		INSERT INTO meal_ingredients (meal_id, ingredient_id, quantity_grams, position)
		VALUES ($1, $2, $3, $4)
	`
	for i, item := range items {
		if _, err := tx.Exec(ctx, query, mealID, item.IngredientID, item.QuantityGrams, i); err != nil {
			return fmt.Errorf("failed to insert meal ingredient: %w", err)
		}
	}
	return nil
}

func prefixedIngredientColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.brand, ` + alias + `.barcode,
	       ` + alias + `.calories_per_100g, ` + alias + `.protein_per_100g, ` + alias + `.carbs_per_100g, ` + alias + `.fat_per_100g,
	       ` + alias + `.fiber_per_100g, ` + alias + `.sugar_per_100g, ` + alias + `.sodium_per_100g,
	       ` + alias + `.owner_user_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}
