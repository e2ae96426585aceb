package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/google/uuid"
)

type schedulesStorage struct {
	mu        sync.RWMutex
	schedules map[string]*storage.MealSchedule // key: schedule id
	// cell index enforcing one-meal-per-cell: "userID:date:slot" -> schedule id
	byCell map[string]string
}

func newSchedulesStorage() *schedulesStorage {
	return &schedulesStorage{
		schedules: make(map[string]*storage.MealSchedule),
		byCell:    make(map[string]string),
	}
}

func cellKey(userID, date, slot string) string {
	return userID + ":" + date + ":" + slot
}

func (s *schedulesStorage) CreateSchedule(ctx context.Context, schedule *storage.MealSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cellKey(schedule.UserID, schedule.Date, schedule.MealSlot)
	if _, occupied := s.byCell[key]; occupied {
		return storage.ErrConflict
	}

	now := time.Now().UTC()
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	copied := *schedule
	s.schedules[schedule.ID] = &copied
	s.byCell[key] = schedule.ID
	return nil
}

func (s *schedulesStorage) GetSchedule(ctx context.Context, id string) (storage.MealSchedule, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.schedules[id]
	if !ok {
		return storage.MealSchedule{}, false, nil
	}
	return *row, true, nil
}

func (s *schedulesStorage) ListSchedules(ctx context.Context, userID string, filter storage.ScheduleFilter) ([]storage.MealSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.MealSchedule, 0)
	for _, row := range s.schedules {
		if row.UserID != userID {
			continue
		}
		if !matchesFilter(row, filter) {
			continue
		}
		result = append(result, *row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return storage.SlotOrder(result[i].MealSlot) < storage.SlotOrder(result[j].MealSlot)
	})
	return result, nil
}

func (s *schedulesStorage) UpdateSchedule(ctx context.Context, schedule *storage.MealSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.schedules[schedule.ID]
	if !ok {
		return nil
	}

	newKey := cellKey(schedule.UserID, schedule.Date, schedule.MealSlot)
	if holder, occupied := s.byCell[newKey]; occupied && holder != schedule.ID {
		return storage.ErrConflict
	}

	oldKey := cellKey(existing.UserID, existing.Date, existing.MealSlot)
	schedule.CreatedAt = existing.CreatedAt
	schedule.UpdatedAt = time.Now().UTC()

	copied := *schedule
	delete(s.byCell, oldKey)
	s.schedules[schedule.ID] = &copied
	s.byCell[newKey] = schedule.ID
	return nil
}

func (s *schedulesStorage) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.schedules[id]
	if !ok {
		return nil
	}
	delete(s.byCell, cellKey(row.UserID, row.Date, row.MealSlot))
	delete(s.schedules, id)
	return nil
}

func (s *schedulesStorage) ReplaceWeek(ctx context.Context, userID string, startDate, endDate string, entries []storage.ScheduleUpsert) ([]storage.MealSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Delete the window first; entries were validated for internal
	// duplicates by the caller, so the inserts cannot collide.
	for id, row := range s.schedules {
		if row.UserID != userID {
			continue
		}
		if row.Date < startDate || row.Date > endDate {
			continue
		}
		delete(s.byCell, cellKey(row.UserID, row.Date, row.MealSlot))
		delete(s.schedules, id)
	}

	now := time.Now().UTC()
	created := make([]storage.MealSchedule, 0, len(entries))
	for _, entry := range entries {
		row := storage.MealSchedule{
			ID:        uuid.New().String(),
			UserID:    userID,
			MealID:    entry.MealID,
			Date:      entry.Date,
			MealSlot:  entry.MealSlot,
			Completed: false,
			Notes:     entry.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		copied := row
		s.schedules[row.ID] = &copied
		s.byCell[cellKey(userID, row.Date, row.MealSlot)] = row.ID
		created = append(created, row)
	}

	sort.Slice(created, func(i, j int) bool {
		if created[i].Date != created[j].Date {
			return created[i].Date < created[j].Date
		}
		return storage.SlotOrder(created[i].MealSlot) < storage.SlotOrder(created[j].MealSlot)
	})
	return created, nil
}

// mealReferenced reports whether any schedule row points at the meal.
func (s *schedulesStorage) mealReferenced(mealID string) bool {
	return s.mealReferenceCount(mealID) > 0
}

func (s *schedulesStorage) mealReferenceCount(mealID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, row := range s.schedules {
		if row.MealID == mealID {
			count++
		}
	}
	return count
}

func matchesFilter(row *storage.MealSchedule, filter storage.ScheduleFilter) bool {
	if filter.Date != nil {
		if row.Date != *filter.Date {
			return false
		}
	} else {
		if filter.StartDate != nil && row.Date < *filter.StartDate {
			return false
		}
		if filter.EndDate != nil && row.Date > *filter.EndDate {
			return false
		}
	}
	if filter.MealSlot != nil && row.MealSlot != *filter.MealSlot {
		return false
	}
	if filter.Completed != nil && row.Completed != *filter.Completed {
		return false
	}
	return true
}
