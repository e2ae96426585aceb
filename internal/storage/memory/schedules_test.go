package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fitmenu/mealplanner/internal/storage"
)

func TestCreateSchedule_CellExclusivity(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := &storage.MealSchedule{UserID: "u1", MealID: "m1", Date: "2024-01-01", MealSlot: storage.SlotBreakfast}
	if err := store.CreateSchedule(ctx, first); err != nil {
		t.Fatalf("first schedule failed: %v", err)
	}

	second := &storage.MealSchedule{UserID: "u1", MealID: "m2", Date: "2024-01-01", MealSlot: storage.SlotBreakfast}
	if err := store.CreateSchedule(ctx, second); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for occupied cell, got %v", err)
	}

	// Same cell for a different user is independent.
	other := &storage.MealSchedule{UserID: "u2", MealID: "m1", Date: "2024-01-01", MealSlot: storage.SlotBreakfast}
	if err := store.CreateSchedule(ctx, other); err != nil {
		t.Fatalf("different user must succeed: %v", err)
	}
}

func TestCreateSchedule_ConcurrentSameCell(t *testing.T) {
	store := New()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.CreateSchedule(ctx, &storage.MealSchedule{
				UserID:   "u1",
				MealID:   "m1",
				Date:     "2024-01-01",
				MealSlot: storage.SlotLunch,
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, storage.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
}

func TestUpdateSchedule_ExcludesSelfFromConflict(t *testing.T) {
	store := New()
	ctx := context.Background()

	row := &storage.MealSchedule{UserID: "u1", MealID: "m1", Date: "2024-01-01", MealSlot: storage.SlotDinner}
	if err := store.CreateSchedule(ctx, row); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Patching the row without moving it keeps the same cell: no conflict.
	patch := *row
	patch.Completed = true
	if err := store.UpdateSchedule(ctx, &patch); err != nil {
		t.Fatalf("in-place update must not conflict with itself: %v", err)
	}

	occupied := &storage.MealSchedule{UserID: "u1", MealID: "m2", Date: "2024-01-02", MealSlot: storage.SlotDinner}
	if err := store.CreateSchedule(ctx, occupied); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	moved := patch
	moved.Date = "2024-01-02"
	if err := store.UpdateSchedule(ctx, &moved); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict moving onto an occupied cell, got %v", err)
	}
}

func TestReplaceWeek_DeletesWindowAndInserts(t *testing.T) {
	store := New()
	ctx := context.Background()

	inWindow := &storage.MealSchedule{UserID: "u1", MealID: "m1", Date: "2024-01-02", MealSlot: storage.SlotBreakfast}
	outside := &storage.MealSchedule{UserID: "u1", MealID: "m1", Date: "2024-01-10", MealSlot: storage.SlotBreakfast}
	otherUser := &storage.MealSchedule{UserID: "u2", MealID: "m1", Date: "2024-01-02", MealSlot: storage.SlotBreakfast}
	for _, row := range []*storage.MealSchedule{inWindow, outside, otherUser} {
		if err := store.CreateSchedule(ctx, row); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	created, err := store.ReplaceWeek(ctx, "u1", "2024-01-01", "2024-01-07", []storage.ScheduleUpsert{
		{MealID: "m2", Date: "2024-01-03", MealSlot: storage.SlotLunch},
	})
	if err != nil {
		t.Fatalf("replace week failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created row, got %d", len(created))
	}

	rows, err := store.ListSchedules(ctx, "u1", storage.ScheduleFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected window row replaced and outside row kept, got %d rows", len(rows))
	}
	for _, row := range rows {
		if row.Date == "2024-01-02" {
			t.Error("old in-window row must be deleted")
		}
	}

	// The replaced cell must be reusable.
	if err := store.CreateSchedule(ctx, &storage.MealSchedule{
		UserID: "u1", MealID: "m3", Date: "2024-01-02", MealSlot: storage.SlotBreakfast,
	}); err != nil {
		t.Fatalf("cell freed by replace must accept a new schedule: %v", err)
	}

	otherRows, _ := store.ListSchedules(ctx, "u2", storage.ScheduleFilter{})
	if len(otherRows) != 1 {
		t.Fatalf("other users' rows must be untouched, got %d", len(otherRows))
	}
}
