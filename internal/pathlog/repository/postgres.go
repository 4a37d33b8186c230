package repository

import (
	"context"
	"database/sql"
	"errors"

	"robogo/backend/internal/pathlog/domain"
	sessiondomain "robogo/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a path log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const logColumns = `id, session_id, pos_x, pos_y, speed, heading, status, created_at`

// Create persists the path log.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.Log) error {
	const q = `
		INSERT INTO path_logs (id, user_id, device_id, session_id, pos_x, pos_y, speed, heading, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.UserID, l.DeviceID, l.SessionID, l.X, l.Y, l.Speed, l.Heading, string(l.Status), l.CreatedAt,
	)
	return err
}

// GetByID returns the log for id if the scope owns it, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*domain.Log, error) {
	q := `SELECT ` + logColumns + ` FROM path_logs WHERE id = $1 AND user_id = $2 AND device_id = $3`
	row := r.db.QueryRowContext(ctx, q, id, scope.UserID, scope.DeviceID)
	l, err := scanLog(row, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// ListBySession returns the session's path samples in chronological order.
func (r *PostgresRepository) ListBySession(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Log, error) {
	q := `SELECT ` + logColumns + `
		FROM path_logs
		WHERE user_id = $1 AND device_id = $2 AND session_id = $3
		ORDER BY created_at ASC`
	return r.queryLogs(ctx, scope, q, scope.UserID, scope.DeviceID, sessionID)
}

// ListByScope returns all path samples for the scope, oldest first.
func (r *PostgresRepository) ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Log, error) {
	q := `SELECT ` + logColumns + `
		FROM path_logs
		WHERE user_id = $1 AND device_id = $2
		ORDER BY created_at ASC`
	return r.queryLogs(ctx, scope, q, scope.UserID, scope.DeviceID)
}

// Delete removes the log if the scope owns it. ok is false when no owned row matched.
func (r *PostgresRepository) Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error) {
	const q = `DELETE FROM path_logs WHERE id = $1 AND user_id = $2 AND device_id = $3`
	res, err := r.db.ExecContext(ctx, q, id, scope.UserID, scope.DeviceID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) queryLogs(ctx context.Context, scope sessiondomain.Scope, q string, args ...any) ([]*domain.Log, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Log
	for rows.Next() {
		l, err := scanLog(rows, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner, scope sessiondomain.Scope) (*domain.Log, error) {
	var (
		l      domain.Log
		status string
	)
	err := row.Scan(&l.ID, &l.SessionID, &l.X, &l.Y, &l.Speed, &l.Heading, &status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.UserID = scope.UserID
	l.DeviceID = scope.DeviceID
	l.Status = domain.Status(status)
	return &l, nil
}

var _ Repository = (*PostgresRepository)(nil)
