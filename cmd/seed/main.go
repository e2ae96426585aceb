// Command seed loads the shared ingredient catalog into the database.
// Existing catalog entries are matched by name and left untouched, so
// the command is safe to run repeatedly.
package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fitmenu/mealplanner/internal/config"
	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/fitmenu/mealplanner/internal/storage/postgres"
)

type seedIngredient struct {
	name     string
	calories float64
	protein  float64
	carbs    float64
	fat      float64
	fiber    float64
	sugar    float64
	sodium   float64
}

var catalog = []seedIngredient{
	{"Chicken Breast (Skinless)", 165, 31, 0, 3.6, 0, 0, 74},
	{"Brown Rice (Cooked)", 111, 2.6, 23, 0.9, 1.8, 0.4, 5},
	{"Broccoli (Raw)", 34, 2.8, 7, 0.4, 2.6, 1.5, 33},
	{"Salmon (Atlantic, Farmed)", 208, 25, 0, 12, 0, 0, 59},
	{"Sweet Potato (Baked)", 90, 2, 21, 0.2, 3.3, 6.8, 6},
	{"Greek Yogurt (Plain, Non-Fat)", 59, 10, 3.6, 0.4, 0, 3.2, 36},
	{"Almonds (Raw)", 579, 21, 22, 50, 12, 4.4, 1},
	{"Spinach (Raw)", 23, 2.9, 3.6, 0.4, 2.2, 0.4, 79},
	{"Quinoa (Cooked)", 120, 4.4, 22, 1.9, 2.8, 0.9, 7},
	{"Avocado", 160, 2, 9, 15, 7, 0.7, 7},
	{"Eggs (Large, Whole)", 155, 13, 1.1, 11, 0, 1.1, 124},
	{"Oats (Rolled, Dry)", 389, 17, 66, 7, 11, 0.9, 2},
	{"Lean Ground Beef (93/7)", 152, 22, 0, 7, 0, 0, 66},
	{"Banana", 89, 1.1, 23, 0.3, 2.6, 12, 1},
	{"Olive Oil (Extra Virgin)", 884, 0, 0, 100, 0, 0, 2},
}

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("seed: DATABASE_URL is not set")
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("seed: connecting to database: %v", err)
	}
	defer store.Close()

	existing, err := store.ListIngredients(ctx, "", "")
	if err != nil {
		log.Fatalf("seed: listing ingredients: %v", err)
	}
	known := make(map[string]bool, len(existing))
	for _, ing := range existing {
		if ing.OwnerUserID == nil {
			known[ing.Name] = true
		}
	}

	created := 0
	for _, item := range catalog {
		if known[item.name] {
			log.Printf("seed: %s already present, skipping", item.name)
			continue
		}

		ing := storage.Ingredient{
			Name:            item.name,
			CaloriesPer100g: item.calories,
			ProteinPer100g:  item.protein,
			CarbsPer100g:    item.carbs,
			FatPer100g:      item.fat,
			FiberPer100g:    optional(item.fiber),
			SugarPer100g:    optional(item.sugar),
			SodiumPer100g:   optional(item.sodium),
			OwnerUserID:     nil, // catalog entries are shared
		}
		if err := store.CreateIngredient(ctx, &ing); err != nil {
			log.Fatalf("seed: creating %s: %v", item.name, err)
		}
		log.Printf("seed: created %s (%g kcal/100g)", item.name, item.calories)
		created++
	}

	log.Printf("seed: done, %d created, %d skipped", created, len(catalog)-created)
}

// optional returns nil for zero values, matching how the catalog treats
// absent micronutrients.
func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
