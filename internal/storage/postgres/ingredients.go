package postgres

import (
	"context"
	"fmt"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ingredientsStorage struct {
	pool *pgxpool.Pool
}

func newIngredientsStorage(pool *pgxpool.Pool) *ingredientsStorage {
	return &ingredientsStorage{pool: pool}
}

const ingredientColumns = `
	id, name, brand, barcode,
	calories_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g,
	fiber_per_100g, sugar_per_100g, sodium_per_100g,
	owner_user_id, created_at, updated_at
`

func scanIngredient(row pgx.Row) (storage.Ingredient, error) {
	var ing storage.Ingredient
	err := row.Scan(
		&ing.ID,
		&ing.Name,
		&ing.Brand,
		&ing.Barcode,
		&ing.CaloriesPer100g,
		&ing.ProteinPer100g,
		&ing.CarbsPer100g,
		&ing.FatPer100g,
		&ing.FiberPer100g,
		&ing.SugarPer100g,
		&ing.SodiumPer100g,
		&ing.OwnerUserID,
		&ing.CreatedAt,
		&ing.UpdatedAt,
	)
	return ing, err
}

func (s *ingredientsStorage) CreateIngredient(ctx context.Context, ingredient *storage.Ingredient) error {
	query := `
		INSERT INTO ingredients (name, brand, barcode,
		                         calories_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g,
		                         fiber_per_100g, sugar_per_100g, sodium_per_100g, owner_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + ingredientColumns

	created, err := scanIngredient(s.pool.QueryRow(ctx, query,
		ingredient.Name,
		ingredient.Brand,
		ingredient.Barcode,
		ingredient.CaloriesPer100g,
		ingredient.ProteinPer100g,
		ingredient.CarbsPer100g,
		ingredient.FatPer100g,
		ingredient.FiberPer100g,
		ingredient.SugarPer100g,
		ingredient.SodiumPer100g,
		ingredient.OwnerUserID,
	))
	if err != nil {
		return fmt.Errorf("failed to create ingredient: %w", err)
	}

	*ingredient = created
	return nil
}

func (s *ingredientsStorage) GetIngredient(ctx context.Context, id string) (storage.Ingredient, bool, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`

	ing, err := scanIngredient(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return storage.Ingredient{}, false, nil
	}
	if err != nil {
		return storage.Ingredient{}, false, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return ing, true, nil
}

func (s *ingredientsStorage) ListIngredients(ctx context.Context, userID string, search string) ([]storage.Ingredient, error) {
	query := `
		SELECT ` + ingredientColumns + `
		FROM ingredients
		WHERE (owner_user_id IS NULL OR owner_user_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR brand ILIKE '%' || $2 || '%')
		ORDER BY lower(name)
	`

	rows, err := s.pool.Query(ctx, query, userID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	result := make([]storage.Ingredient, 0)
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		result = append(result, ing)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", rows.Err())
	}
	return result, nil
}

func (s *ingredientsStorage) UpdateIngredient(ctx context.Context, ingredient *storage.Ingredient) error {
	query := `
		UPDATE ingredients
		SET name = $2, brand = $3, barcode = $4,
		    calories_per_100g = $5, protein_per_100g = $6, carbs_per_100g = $7, fat_per_100g = $8,
		    fiber_per_100g = $9, sugar_per_100g = $10, sodium_per_100g = $11,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + ingredientColumns

	updated, err := scanIngredient(s.pool.QueryRow(ctx, query,
		ingredient.ID,
		ingredient.Name,
		ingredient.Brand,
		ingredient.Barcode,
		ingredient.CaloriesPer100g,
		ingredient.ProteinPer100g,
		ingredient.CarbsPer100g,
		ingredient.FatPer100g,
		ingredient.FiberPer100g,
		ingredient.SugarPer100g,
		ingredient.SodiumPer100g,
	))
	if err == pgx.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", err)
	}

	*ingredient = updated
	return nil
}

func (s *ingredientsStorage) DeleteIngredient(ctx context.Context, id string) error {
	// The RESTRICT foreign key from meal_ingredients rejects deletion of a
	// profile that is still referenced; translateConstraint surfaces that
	// as a conflict.
	_, err := s.pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		if translated := translateConstraint(err); translated == storage.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	return nil
}
