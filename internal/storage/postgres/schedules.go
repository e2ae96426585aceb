package postgres

import (
	"context"
	"fmt"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type schedulesStorage struct {
	pool *pgxpool.Pool
}

func newSchedulesStorage(pool *pgxpool.Pool) *schedulesStorage {
	return &schedulesStorage{pool: pool}
}

const scheduleColumns = `
	id, user_id, meal_id, date::text, meal_slot, completed, notes, created_at, updated_at
`

func scanSchedule(row pgx.Row) (storage.MealSchedule, error) {
	var sched storage.MealSchedule
	err := row.Scan(
		&sched.ID,
		&sched.UserID,
		&sched.MealID,
		&sched.Date,
		&sched.MealSlot,
		&sched.Completed,
		&sched.Notes,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	)
	return sched, err
}

func (s *schedulesStorage) CreateSchedule(ctx context.Context, schedule *storage.MealSchedule) error {
	query := `
		INSERT INTO meal_schedules (user_id, meal_id, date, meal_slot, completed, notes)
		VALUES ($1, $2, $3::date, $4, false, $5)
		RETURNING ` + scheduleColumns

	created, err := scanSchedule(s.pool.QueryRow(ctx, query,
		schedule.UserID,
		schedule.MealID,
		schedule.Date,
		schedule.MealSlot,
		schedule.Notes,
	))
	if err != nil {
		// The UNIQUE (user_id, date, meal_slot) index resolves concurrent
		// inserts into the same cell: exactly one wins.
		if translated := translateConstraint(err); translated == storage.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to create meal schedule: %w", err)
	}

	*schedule = created
	return nil
}

func (s *schedulesStorage) GetSchedule(ctx context.Context, id string) (storage.MealSchedule, bool, error) {
	query := `SELECT ` + scheduleColumns + ` FROM meal_schedules WHERE id = $1`

	sched, err := scanSchedule(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return storage.MealSchedule{}, false, nil
	}
	if err != nil {
		return storage.MealSchedule{}, false, fmt.Errorf("failed to get meal schedule: %w", err)
	}
	return sched, true, nil
}

func (s *schedulesStorage) ListSchedules(ctx context.Context, userID string, filter storage.ScheduleFilter) ([]storage.MealSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM meal_schedules
		WHERE user_id = $1
		  AND ($2::date IS NULL OR date = $2::date)
		  AND ($3::date IS NULL OR date >= $3::date)
		  AND ($4::date IS NULL OR date <= $4::date)
		  AND ($5::text IS NULL OR meal_slot = $5)
		  AND ($6::boolean IS NULL OR completed = $6)
		ORDER BY date,
			CASE meal_slot
				WHEN 'breakfast' THEN 1
				WHEN 'lunch' THEN 2
				WHEN 'dinner' THEN 3
				WHEN 'snack' THEN 4
				ELSE 5
			END
	`

	startDate, endDate := filter.StartDate, filter.EndDate
	if filter.Date != nil {
		startDate, endDate = nil, nil
	}

	rows, err := s.pool.Query(ctx, query, userID, filter.Date, startDate, endDate, filter.MealSlot, filter.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal schedules: %w", err)
	}
	defer rows.Close()

	result := make([]storage.MealSchedule, 0)
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal schedule: %w", err)
		}
		result = append(result, sched)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating meal schedules: %w", rows.Err())
	}
	return result, nil
}

func (s *schedulesStorage) UpdateSchedule(ctx context.Context, schedule *storage.MealSchedule) error {
	query := `
		UPDATE meal_schedules
		SET meal_id = $2, date = $3::date, meal_slot = $4, completed = $5,
		    notes = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + scheduleColumns

	updated, err := scanSchedule(s.pool.QueryRow(ctx, query,
		schedule.ID,
		schedule.MealID,
		schedule.Date,
		schedule.MealSlot,
		schedule.Completed,
		schedule.Notes,
	))
	if err == pgx.ErrNoRows {
		return nil
	}
	if err != nil {
		if translated := translateConstraint(err); translated == storage.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to update meal schedule: %w", err)
	}

	*schedule = updated
	return nil
}

func (s *schedulesStorage) DeleteSchedule(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM meal_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal schedule: %w", err)
	}
	return nil
}

func (s *schedulesStorage) ReplaceWeek(ctx context.Context, userID string, startDate, endDate string, entries []storage.ScheduleUpsert) ([]storage.MealSchedule, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM meal_schedules
		WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
	`
	if _, err := tx.Exec(ctx, deleteQuery, userID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to clear week: %w", err)
	}

	insertQuery := `
		INSERT INTO meal_schedules (user_id, meal_id, date, meal_slot, completed, notes)
		VALUES ($1, $2, $3::date, $4, false, $5)
		RETURNING ` + scheduleColumns

	created := make([]storage.MealSchedule, 0, len(entries))
	for _, entry := range entries {
		sched, err := scanSchedule(tx.QueryRow(ctx, insertQuery,
			userID,
			entry.MealID,
			entry.Date,
			entry.MealSlot,
			entry.Notes,
		))
		if err != nil {
			if translated := translateConstraint(err); translated == storage.ErrConflict {
				return nil, translated
			}
			return nil, fmt.Errorf("failed to insert week entry: %w", err)
		}
		created = append(created, sched)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}
