// Command smoke runs an end-to-end check against a live API instance:
// dev auth, ingredient and meal creation, scheduling, week view, daily
// rollup, then cleanup. Exits non-zero on the first failure.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const defaultAPIBase = "http://localhost:8080"

var (
	apiBase string
	token   string
	client  = &http.Client{Timeout: 30 * time.Second}
)

func main() {
	fmt.Println("=== Meal Planner Smoke Test ===")

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	testDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Test date: %s\n\n", testDate)

	step("healthz", func() error {
		var resp map[string]string
		if err := request(http.MethodGet, "/healthz", nil, http.StatusOK, &resp); err != nil {
			return err
		}
		if resp["status"] != "ok" {
			return fmt.Errorf("unexpected health payload: %v", resp)
		}
		return nil
	})

	step("dev auth", func() error {
		var resp struct {
			AccessToken string `json:"access_token"`
		}
		payload := map[string]string{"user_id": "smoke-test"}
		if err := request(http.MethodPost, "/v1/auth/dev", payload, http.StatusOK, &resp); err != nil {
			return err
		}
		if resp.AccessToken == "" {
			return fmt.Errorf("empty access token")
		}
		token = resp.AccessToken
		return nil
	})

	var ingredientID, mealID, scheduleID string

	step("create ingredient", func() error {
		var resp struct {
			ID string `json:"id"`
		}
		payload := map[string]any{
			"name":              "Smoke Test Oats",
			"calories_per_100g": 389,
			"protein_per_100g":  16.9,
			"carbs_per_100g":    66.3,
			"fat_per_100g":      6.9,
		}
		if err := request(http.MethodPost, "/v1/ingredients", payload, http.StatusCreated, &resp); err != nil {
			return err
		}
		ingredientID = resp.ID
		return nil
	})

	step("create meal", func() error {
		var resp struct {
			ID            string  `json:"id"`
			TotalCalories float64 `json:"total_calories"`
		}
		payload := map[string]any{
			"name": "Smoke Test Breakfast",
			"ingredients": []map[string]any{
				{"ingredient_id": ingredientID, "quantity_grams": 100},
			},
		}
		if err := request(http.MethodPost, "/v1/meals", payload, http.StatusCreated, &resp); err != nil {
			return err
		}
		if resp.TotalCalories != 389 {
			return fmt.Errorf("expected 389 kcal, got %v", resp.TotalCalories)
		}
		mealID = resp.ID
		return nil
	})

	step("schedule meal", func() error {
		var resp struct {
			ID string `json:"id"`
		}
		payload := map[string]any{
			"meal_id":   mealID,
			"date":      testDate,
			"meal_slot": "breakfast",
		}
		if err := request(http.MethodPost, "/v1/meal-schedules", payload, http.StatusCreated, &resp); err != nil {
			return err
		}
		scheduleID = resp.ID
		return nil
	})

	step("occupied cell rejected", func() error {
		payload := map[string]any{
			"meal_id":   mealID,
			"date":      testDate,
			"meal_slot": "breakfast",
		}
		return request(http.MethodPost, "/v1/meal-schedules", payload, http.StatusConflict, nil)
	})

	step("week view", func() error {
		var days []struct {
			Date      string `json:"date"`
			Schedules []any  `json:"schedules"`
		}
		path := fmt.Sprintf("/v1/meal-schedules/week?date=%s", testDate)
		if err := request(http.MethodGet, path, nil, http.StatusOK, &days); err != nil {
			return err
		}
		if len(days) != 7 {
			return fmt.Errorf("expected 7 days, got %d", len(days))
		}
		for _, d := range days {
			if d.Date == testDate && len(d.Schedules) == 1 {
				return nil
			}
		}
		return fmt.Errorf("scheduled meal not found in week view")
	})

	step("daily nutrition", func() error {
		var resp struct {
			TotalCalories float64 `json:"total_calories"`
			MealsCount    int     `json:"meals_count"`
		}
		path := fmt.Sprintf("/v1/meal-schedules/nutrition/daily?date=%s", testDate)
		if err := request(http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
			return err
		}
		if resp.MealsCount != 1 || resp.TotalCalories != 389 {
			return fmt.Errorf("unexpected rollup: %+v", resp)
		}
		return nil
	})

	step("cleanup", func() error {
		if err := request(http.MethodDelete, "/v1/meal-schedules/"+scheduleID, nil, http.StatusNoContent, nil); err != nil {
			return err
		}
		if err := request(http.MethodDelete, "/v1/meals/"+mealID, nil, http.StatusNoContent, nil); err != nil {
			return err
		}
		return request(http.MethodDelete, "/v1/ingredients/"+ingredientID, nil, http.StatusNoContent, nil)
	})

	fmt.Println("\nAll smoke checks passed.")
}

func step(name string, fn func() error) {
	fmt.Printf("-> %s... ", name)
	if err := fn(); err != nil {
		fmt.Println("FAIL")
		fmt.Fprintf(os.Stderr, "smoke: %s: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func request(method, path string, payload any, wantStatus int, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s: expected %d, got %d body=%s", method, path, wantStatus, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
