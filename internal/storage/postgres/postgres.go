// Package postgres is the pgx-backed storage implementation. Cell
// exclusivity relies on the UNIQUE (user_id, date, meal_slot) index and
// referential rejections on RESTRICT foreign keys, so concurrent writers
// are serialized by the database rather than by application checks.
package postgres

import (
	"context"
	"errors"

	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements storage.Storage.
type PostgresStorage struct {
	pool *pgxpool.Pool

	*ingredientsStorage
	*mealsStorage
	*schedulesStorage
}

// New connects to the database and pings it.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:               pool,
		ingredientsStorage: newIngredientsStorage(pool),
		mealsStorage:       newMealsStorage(pool),
		schedulesStorage:   newSchedulesStorage(pool),
	}, nil
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.Storage = (*PostgresStorage)(nil)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateConstraint maps unique and foreign-key violations to
// storage.ErrConflict; everything else passes through.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation || pgErr.Code == pgForeignKeyViolation {
			return storage.ErrConflict
		}
	}
	return err
}
