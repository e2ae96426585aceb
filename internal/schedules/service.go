package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitmenu/mealplanner/internal/access"
	"github.com/fitmenu/mealplanner/internal/apperr"
	"github.com/fitmenu/mealplanner/internal/nutrition"
	"github.com/fitmenu/mealplanner/internal/storage"
)

// Service manages the meal calendar: one meal per (date, slot) cell,
// week-level bulk planning and nutrition rollups.
type Service struct {
	schedules storage.MealSchedulesStorage
	meals     storage.MealsStorage
}

func NewService(schedules storage.MealSchedulesStorage, meals storage.MealsStorage) *Service {
	return &Service{schedules: schedules, meals: meals}
}

func (s *Service) Create(ctx context.Context, userID string, req CreateScheduleRequest) (*ScheduleDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	meal, err := s.visibleMeal(ctx, userID, req.MealID)
	if err != nil {
		return nil, err
	}

	row := storage.MealSchedule{
		UserID:   userID,
		MealID:   req.MealID,
		Date:     req.Date,
		MealSlot: req.MealSlot,
		Notes:    req.Notes,
	}
	if err := s.schedules.CreateSchedule(ctx, &row); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflictf("a meal is already scheduled for %s %s", req.Date, req.MealSlot)
		}
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	dto := toScheduleDTO(row, meal)
	return &dto, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*ScheduleDTO, error) {
	row, err := s.ownedSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	dto, err := s.withMeal(ctx, row)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// List returns the requester's schedule rows ordered by date then slot.
// A single date wins over the start/end range pair.
func (s *Service) List(ctx context.Context, userID string, filter storage.ScheduleFilter) ([]ScheduleDTO, error) {
	if filter.Date != nil {
		if err := validDate(*filter.Date); err != nil {
			return nil, err
		}
	}
	if filter.StartDate != nil {
		if err := validDate(*filter.StartDate); err != nil {
			return nil, err
		}
	}
	if filter.EndDate != nil {
		if err := validDate(*filter.EndDate); err != nil {
			return nil, err
		}
	}
	if filter.MealSlot != nil && !storage.ValidMealSlot(*filter.MealSlot) {
		return nil, apperr.Validationf("meal_slot must be one of breakfast, lunch, dinner, snack")
	}

	rows, err := s.schedules.ListSchedules(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return s.withMeals(ctx, rows)
}

func (s *Service) Update(ctx context.Context, userID, id string, req UpdateScheduleRequest) (*ScheduleDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	row, err := s.ownedSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.MealID != nil && *req.MealID != row.MealID {
		if _, err := s.visibleMeal(ctx, userID, *req.MealID); err != nil {
			return nil, err
		}
		row.MealID = *req.MealID
	}
	if req.Date != nil {
		row.Date = *req.Date
	}
	if req.MealSlot != nil {
		row.MealSlot = *req.MealSlot
	}
	if req.Completed != nil {
		row.Completed = *req.Completed
	}
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	if err := s.schedules.UpdateSchedule(ctx, &row); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflictf("a meal is already scheduled for %s %s", row.Date, row.MealSlot)
		}
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	dto, err := s.withMeal(ctx, row)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedSchedule(ctx, userID, id); err != nil {
		return err
	}
	if err := s.schedules.DeleteSchedule(ctx, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// WeekView returns the seven days of the week containing anchor, Sunday
// first. Every day is present even when nothing is scheduled on it.
func (s *Service) WeekView(ctx context.Context, userID, anchor string) ([]WeekDayDTO, error) {
	day, err := time.Parse("2006-01-02", anchor)
	if err != nil {
		return nil, apperr.Validationf("date must be formatted YYYY-MM-DD")
	}
	start := day.AddDate(0, 0, -int(day.Weekday()))
	startDate := start.Format("2006-01-02")
	endDate := start.AddDate(0, 0, 6).Format("2006-01-02")

	rows, err := s.schedules.ListSchedules(ctx, userID, storage.ScheduleFilter{
		StartDate: &startDate,
		EndDate:   &endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	dtos, err := s.withMeals(ctx, rows)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]ScheduleDTO, 7)
	for _, dto := range dtos {
		byDate[dto.Date] = append(byDate[dto.Date], dto)
	}

	week := make([]WeekDayDTO, 0, 7)
	for i := 0; i < 7; i++ {
		current := start.AddDate(0, 0, i)
		date := current.Format("2006-01-02")
		daySchedules := byDate[date]
		if daySchedules == nil {
			daySchedules = []ScheduleDTO{}
		}
		week = append(week, WeekDayDTO{
			Date:      date,
			DayOfWeek: current.Weekday().String(),
			Schedules: daySchedules,
			Nutrition: dayNutrition(daySchedules),
		})
	}
	return week, nil
}

// ReplaceWeek validates the whole payload up front, then atomically
// swaps the week's rows. A rejected payload leaves the calendar as it
// was; an empty payload clears the week.
func (s *Service) ReplaceWeek(ctx context.Context, userID string, req ReplaceWeekRequest) ([]ScheduleDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, entry := range req.Entries {
		if _, err := s.visibleMeal(ctx, userID, entry.MealID); err != nil {
			return nil, err
		}
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	endDate := start.AddDate(0, 0, 6).Format("2006-01-02")

	entries := make([]storage.ScheduleUpsert, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, storage.ScheduleUpsert{
			MealID:   entry.MealID,
			Date:     entry.Date,
			MealSlot: entry.MealSlot,
			Notes:    entry.Notes,
		})
	}

	rows, err := s.schedules.ReplaceWeek(ctx, userID, req.StartDate, endDate, entries)
	if err != nil {
		return nil, fmt.Errorf("replace week: %w", err)
	}
	return s.withMeals(ctx, rows)
}

// DailyNutrition returns the rollup over one day's scheduled meals.
func (s *Service) DailyNutrition(ctx context.Context, userID, date string) (*DayNutritionDTO, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	rows, err := s.schedules.ListSchedules(ctx, userID, storage.ScheduleFilter{Date: &date})
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	dtos, err := s.withMeals(ctx, rows)
	if err != nil {
		return nil, err
	}
	summary := dayNutrition(dtos)
	return &summary, nil
}

func (s *Service) visibleMeal(ctx context.Context, userID, mealID string) (storage.MealWithIngredients, error) {
	meal, found, err := s.meals.GetMeal(ctx, mealID)
	if err != nil {
		return storage.MealWithIngredients{}, fmt.Errorf("get meal: %w", err)
	}
	if !found || !access.CanRead(userID, meal.OwnerUserID) {
		return storage.MealWithIngredients{}, apperr.NotFoundf("meal %s not found", mealID)
	}
	return meal, nil
}

func (s *Service) ownedSchedule(ctx context.Context, userID, id string) (storage.MealSchedule, error) {
	row, found, err := s.schedules.GetSchedule(ctx, id)
	if err != nil {
		return storage.MealSchedule{}, fmt.Errorf("get schedule: %w", err)
	}
	if !found || row.UserID != userID {
		return storage.MealSchedule{}, apperr.NotFoundf("schedule %s not found", id)
	}
	return row, nil
}

func (s *Service) withMeal(ctx context.Context, row storage.MealSchedule) (ScheduleDTO, error) {
	meal, _, err := s.meals.GetMeal(ctx, row.MealID)
	if err != nil {
		return ScheduleDTO{}, fmt.Errorf("get meal: %w", err)
	}
	return toScheduleDTO(row, meal), nil
}

func (s *Service) withMeals(ctx context.Context, rows []storage.MealSchedule) ([]ScheduleDTO, error) {
	dtos := make([]ScheduleDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := s.withMeal(ctx, row)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func dayNutrition(dtos []ScheduleDTO) DayNutritionDTO {
	parts := make([]nutrition.Totals, 0, len(dtos))
	completed := 0
	for _, dto := range dtos {
		parts = append(parts, dto.Meal.Totals)
		if dto.Completed {
			completed++
		}
	}
	return DayNutritionDTO{
		Totals:         nutrition.Sum(parts),
		MealsCount:     len(dtos),
		CompletedMeals: completed,
	}
}
