package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"robogo/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session counter repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the counter for the scope, or nil if the scope has never started a session.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, scope domain.Scope) (*domain.Counter, error) {
	const q = `SELECT current_session, updated_at FROM session_counters WHERE user_id = $1 AND device_id = $2`
	c := domain.Counter{Scope: scope}
	err := r.db.QueryRowContext(ctx, q, scope.UserID, scope.DeviceID).Scan(&c.Current, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Set writes the counter value for the scope, creating the row if needed.
func (r *PostgresRepository) Set(ctx context.Context, scope domain.Scope, value int) error {
	const q = `
		INSERT INTO session_counters (user_id, device_id, current_session, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET current_session = EXCLUDED.current_session, updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, scope.UserID, scope.DeviceID, value, time.Now().UTC())
	return err
}

// AdvanceTo raises the counter to value only when it is ahead of the stored
// one, in a single statement so concurrent advances cannot regress it.
func (r *PostgresRepository) AdvanceTo(ctx context.Context, scope domain.Scope, value int) error {
	const q = `
		INSERT INTO session_counters (user_id, device_id, current_session, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET current_session = EXCLUDED.current_session, updated_at = EXCLUDED.updated_at
		WHERE session_counters.current_session < EXCLUDED.current_session`
	_, err := r.db.ExecContext(ctx, q, scope.UserID, scope.DeviceID, value, time.Now().UTC())
	return err
}
