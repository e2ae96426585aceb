package meals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/fitmenu/mealplanner/internal/storage/memory"
	"github.com/fitmenu/mealplanner/internal/userctx"
)

func newTestHandlers(mem *memory.MemoryStorage) *Handlers {
	return NewHandlers(NewService(mem, mem))
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(userctx.WithUserID(context.Background(), userID))
}

func seedIngredient(t *testing.T, mem *memory.MemoryStorage, ing storage.Ingredient) storage.Ingredient {
	t.Helper()
	if err := mem.CreateIngredient(context.Background(), &ing); err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

func TestMealCreateComputesTotals(t *testing.T) {
	mem := memory.New()
	h := newTestHandlers(mem)

	chicken := seedIngredient(t, mem, storage.Ingredient{
		Name: "Chicken Breast", CaloriesPer100g: 200, ProteinPer100g: 10,
		CarbsPer100g: 0, FatPer100g: 4,
	})
	rice := seedIngredient(t, mem, storage.Ingredient{
		Name: "Rice", CaloriesPer100g: 130, ProteinPer100g: 2.7,
		CarbsPer100g: 28, FatPer100g: 0.3,
	})

	body, _ := json.Marshal(CreateMealRequest{
		Name: "Chicken and Rice",
		Ingredients: []MealItemInput{
			{IngredientID: chicken.ID, QuantityGrams: 150},
			{IngredientID: rice.ID, QuantityGrams: 200},
		},
	})
	w := httptest.NewRecorder()
	h.HandleCreate(w, authedRequest(http.MethodPost, "/v1/meals", body, "userA"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var dto MealDTO
	if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.Servings != 1 {
		t.Fatalf("expected default servings=1, got %d", dto.Servings)
	}
	if len(dto.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredient rows, got %d", len(dto.Ingredients))
	}
	if dto.Ingredients[0].IngredientID != chicken.ID || dto.Ingredients[1].IngredientID != rice.ID {
		t.Fatalf("expected rows in insertion order, got %+v", dto.Ingredients)
	}
	// 150g at 200/10 per 100g plus 200g at 130/2.7 per 100g
	if dto.Calories != 560 {
		t.Fatalf("expected total_calories=560, got %v", dto.Calories)
	}
	if dto.Protein != 20.4 {
		t.Fatalf("expected total_protein=20.4, got %v", dto.Protein)
	}
	if dto.Fiber != nil {
		t.Fatalf("expected fiber to be absent, got %v", *dto.Fiber)
	}
}

func TestMealCreateRejectsBadInput(t *testing.T) {
	mem := memory.New()
	h := newTestHandlers(mem)

	ing := seedIngredient(t, mem, storage.Ingredient{Name: "Oats", CaloriesPer100g: 389})

	badSlot := "brunch"
	cases := []struct {
		name string
		req  CreateMealRequest
	}{
		{"empty name", CreateMealRequest{Name: " ", Ingredients: []MealItemInput{{IngredientID: ing.ID, QuantityGrams: 50}}}},
		{"unknown slot", CreateMealRequest{Name: "Bowl", MealSlot: &badSlot, Ingredients: []MealItemInput{{IngredientID: ing.ID, QuantityGrams: 50}}}},
		{"zero quantity", CreateMealRequest{Name: "Bowl", Ingredients: []MealItemInput{{IngredientID: ing.ID, QuantityGrams: 0}}}},
		{"no ingredients", CreateMealRequest{Name: "Bowl", Ingredients: []MealItemInput{}}},
		{"nil ingredients", CreateMealRequest{Name: "Bowl"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			w := httptest.NewRecorder()
			h.HandleCreate(w, authedRequest(http.MethodPost, "/v1/meals", body, "userA"))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
			}
		})
	}

	badDate := "2026-13-40"
	body, _ := json.Marshal(CreateMealRequest{
		Name: "Bowl", Date: &badDate,
		Ingredients: []MealItemInput{{IngredientID: ing.ID, QuantityGrams: 50}},
	})
	w := httptest.NewRecorder()
	h.HandleCreate(w, authedRequest(http.MethodPost, "/v1/meals", body, "userA"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", w.Code)
	}

	// a well-formed reference to a profile that does not exist is 404, not 400
	body, _ = json.Marshal(CreateMealRequest{
		Name:        "Bowl",
		Ingredients: []MealItemInput{{IngredientID: "nope", QuantityGrams: 50}},
	})
	w = httptest.NewRecorder()
	h.HandleCreate(w, authedRequest(http.MethodPost, "/v1/meals", body, "userA"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ingredient, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestMealUpdateRejectsEmptyIngredients(t *testing.T) {
	mem := memory.New()
	h := newTestHandlers(mem)

	ing := seedIngredient(t, mem, storage.Ingredient{Name: "Oats", CaloriesPer100g: 389})
	createBody, _ := json.Marshal(CreateMealRequest{
		Name:        "Bowl",
		Ingredients: []MealItemInput{{IngredientID: ing.ID, QuantityGrams: 100}},
	})
	createW := httptest.NewRecorder()
	h.HandleCreate(createW, authedRequest(http.MethodPost, "/v1/meals", createBody, "userA"))
	var created MealDTO
	if err := json.NewDecoder(createW.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	// a patch may not wipe the composition
	empty := []MealItemInput{}
	patchBody, _ := json.Marshal(UpdateMealRequest{Ingredients: &empty})
	patchReq := authedRequest(http.MethodPatch, "/v1/meals/"+created.ID, patchBody, "userA")
	patchReq.SetPathValue("id", created.ID)
	patchW := httptest.NewRecorder()
	h.HandleUpdate(patchW, patchReq)
	if patchW.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty ingredient patch, got %d body=%s", patchW.Code, patchW.Body.String())
	}

	// rows are still there
	getReq := authedRequest(http.MethodGet, "/v1/meals/"+created.ID, nil, "userA")
	getReq.SetPathValue("id", created.ID)
	getW := httptest.NewRecorder()
	h.HandleGet(getW, getReq)
	var after MealDTO
	if err := json.NewDecoder(getW.Body).Decode(&after); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if len(after.Ingredients) != 1 {
		t.Fatalf("expected composition intact, got %+v", after.Ingredients)
	}
}

func TestMealUpdateReplacesIngredients(t *testing.T) {
	mem := memory.New()
	h := newTestHandlers(mem)

	a := seedIngredient(t, mem, storage.Ingredient{Name: "A", CaloriesPer100g: 100})
	b := seedIngredient(t, mem, storage.Ingredient{Name: "B", CaloriesPer100g: 300})

	createBody, _ := json.Marshal(CreateMealRequest{
		Name:        "Bowl",
		Ingredients: []MealItemInput{{IngredientID: a.ID, QuantityGrams: 100}},
	})
	createW := httptest.NewRecorder()
	h.HandleCreate(createW, authedRequest(http.MethodPost, "/v1/meals", createBody, "userA"))
	var created MealDTO
	if err := json.NewDecoder(createW.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.Calories != 100 {
		t.Fatalf("expected 100 kcal, got %v", created.Calories)
	}

	// patch name only: rows untouched
	newName := "Better Bowl"
	patch1, _ := json.Marshal(UpdateMealRequest{Name: &newName})
	patchReq := authedRequest(http.MethodPatch, "/v1/meals/"+created.ID, patch1, "userA")
	patchReq.SetPathValue("id", created.ID)
	patchW := httptest.NewRecorder()
	h.HandleUpdate(patchW, patchReq)
	var renamed MealDTO
	if err := json.NewDecoder(patchW.Body).Decode(&renamed); err != nil {
		t.Fatalf("decode rename: %v", err)
	}
	if renamed.Name != newName || len(renamed.Ingredients) != 1 {
		t.Fatalf("rename changed rows: %+v", renamed)
	}

	// patch ingredients: full replace
	items := []MealItemInput{{IngredientID: b.ID, QuantityGrams: 50}}
	patch2, _ := json.Marshal(UpdateMealRequest{Ingredients: &items})
	patchReq2 := authedRequest(http.MethodPatch, "/v1/meals/"+created.ID, patch2, "userA")
	patchReq2.SetPathValue("id", created.ID)
	patchW2 := httptest.NewRecorder()
	h.HandleUpdate(patchW2, patchReq2)
	var replaced MealDTO
	if err := json.NewDecoder(patchW2.Body).Decode(&replaced); err != nil {
		t.Fatalf("decode replace: %v", err)
	}
	if len(replaced.Ingredients) != 1 || replaced.Ingredients[0].IngredientID != b.ID {
		t.Fatalf("expected rows replaced, got %+v", replaced.Ingredients)
	}
	if replaced.Calories != 150 {
		t.Fatalf("expected 150 kcal after replace, got %v", replaced.Calories)
	}
}

func TestMealVisibilityAndDuplicate(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	h := newTestHandlers(mem)

	ing := seedIngredient(t, mem, storage.Ingredient{Name: "Lentils", CaloriesPer100g: 116, ProteinPer100g: 9})

	// admin catalog meal, no owner
	slot := storage.SlotLunch
	adminMeal := storage.Meal{Name: "Lentil Soup", MealSlot: &slot, Servings: 2}
	if _, err := mem.CreateMeal(ctx, &adminMeal, []storage.MealIngredientUpsert{{IngredientID: ing.ID, QuantityGrams: 250}}); err != nil {
		t.Fatalf("seed admin meal: %v", err)
	}

	// readable by anyone
	getReq := authedRequest(http.MethodGet, "/v1/meals/"+adminMeal.ID, nil, "userB")
	getReq.SetPathValue("id", adminMeal.ID)
	getW := httptest.NewRecorder()
	h.HandleGet(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200 reading admin meal, got %d", getW.Code)
	}
	var adminDTO MealDTO
	if err := json.NewDecoder(getW.Body).Decode(&adminDTO); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if adminDTO.CreatedByType != "admin" {
		t.Fatalf("expected created_by_type=admin, got %s", adminDTO.CreatedByType)
	}

	// but never editable
	name := "Mine now"
	patchBody, _ := json.Marshal(UpdateMealRequest{Name: &name})
	patchReq := authedRequest(http.MethodPatch, "/v1/meals/"+adminMeal.ID, patchBody, "userB")
	patchReq.SetPathValue("id", adminMeal.ID)
	patchW := httptest.NewRecorder()
	h.HandleUpdate(patchW, patchReq)
	if patchW.Code != http.StatusForbidden {
		t.Fatalf("expected 403 editing admin meal, got %d", patchW.Code)
	}

	// duplicate makes a personal editable copy on a chosen date
	date := "2026-03-02"
	dupBody, _ := json.Marshal(DuplicateMealRequest{Date: &date})
	dupReq := authedRequest(http.MethodPost, "/v1/meals/"+adminMeal.ID+"/duplicate", dupBody, "userB")
	dupReq.SetPathValue("id", adminMeal.ID)
	dupW := httptest.NewRecorder()
	h.HandleDuplicate(dupW, dupReq)
	if dupW.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", dupW.Code, dupW.Body.String())
	}
	var dup MealDTO
	if err := json.NewDecoder(dupW.Body).Decode(&dup); err != nil {
		t.Fatalf("decode duplicate: %v", err)
	}
	if dup.ID == adminMeal.ID {
		t.Fatalf("duplicate reused the original id")
	}
	if dup.CreatedByType != "user" {
		t.Fatalf("expected duplicate to be user-owned, got %s", dup.CreatedByType)
	}
	if dup.Date == nil || *dup.Date != date {
		t.Fatalf("expected duplicate date %s, got %v", date, dup.Date)
	}
	if len(dup.Ingredients) != 1 || dup.Ingredients[0].QuantityGrams != 250 {
		t.Fatalf("expected copied rows, got %+v", dup.Ingredients)
	}

	// cross-user isolation for personal meals
	owner := "userB"
	personal := storage.Meal{Name: "Secret Shake", Servings: 1, OwnerUserID: &owner}
	if _, err := mem.CreateMeal(ctx, &personal, nil); err != nil {
		t.Fatalf("seed personal meal: %v", err)
	}
	crossReq := authedRequest(http.MethodGet, "/v1/meals/"+personal.ID, nil, "userA")
	crossReq.SetPathValue("id", personal.ID)
	crossW := httptest.NewRecorder()
	h.HandleGet(crossW, crossReq)
	if crossW.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-user read, got %d", crossW.Code)
	}
}

func TestMealsByDateOrderedBySlot(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	h := newTestHandlers(mem)

	owner := "userA"
	date := "2026-03-02"
	for _, slot := range []string{storage.SlotDinner, storage.SlotBreakfast, storage.SlotLunch} {
		slot := slot
		meal := storage.Meal{Name: slot + " meal", MealSlot: &slot, Date: &date, Servings: 1, OwnerUserID: &owner}
		if _, err := mem.CreateMeal(ctx, &meal, nil); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := authedRequest(http.MethodGet, "/v1/meals/date/"+date, nil, "userA")
	req.SetPathValue("date", date)
	w := httptest.NewRecorder()
	h.HandleListByDate(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var dtos []MealDTO
	if err := json.NewDecoder(w.Body).Decode(&dtos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dtos) != 3 {
		t.Fatalf("expected 3 meals, got %d", len(dtos))
	}
	wantOrder := []string{storage.SlotBreakfast, storage.SlotLunch, storage.SlotDinner}
	for i, want := range wantOrder {
		if dtos[i].MealSlot == nil || *dtos[i].MealSlot != want {
			t.Fatalf("position %d: expected %s, got %v", i, want, dtos[i].MealSlot)
		}
	}
}

func TestMealDeleteWhileScheduled(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	h := newTestHandlers(mem)

	owner := "userA"
	meal := storage.Meal{Name: "Planned Bowl", Servings: 1, OwnerUserID: &owner}
	if _, err := mem.CreateMeal(ctx, &meal, nil); err != nil {
		t.Fatalf("seed meal: %v", err)
	}
	sched := storage.MealSchedule{
		UserID: owner, MealID: meal.ID, Date: "2026-03-02", MealSlot: storage.SlotLunch,
	}
	if err := mem.CreateSchedule(ctx, &sched); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	delReq := authedRequest(http.MethodDelete, "/v1/meals/"+meal.ID, nil, "userA")
	delReq.SetPathValue("id", meal.ID)
	delW := httptest.NewRecorder()
	h.HandleDelete(delW, delReq)
	if delW.Code != http.StatusConflict {
		t.Fatalf("expected 409 while scheduled, got %d body=%s", delW.Code, delW.Body.String())
	}
	if !strings.Contains(delW.Body.String(), "1 calendar") {
		t.Fatalf("expected the conflict to report the schedule count, got %s", delW.Body.String())
	}

	// unschedule, then the delete goes through
	if err := mem.DeleteSchedule(ctx, sched.ID); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	delW2 := httptest.NewRecorder()
	delReq2 := authedRequest(http.MethodDelete, "/v1/meals/"+meal.ID, nil, "userA")
	delReq2.SetPathValue("id", meal.ID)
	h.HandleDelete(delW2, delReq2)
	if delW2.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after unscheduling, got %d", delW2.Code)
	}
}
