package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"robogo/backend/internal/imu/domain"
	sessiondomain "robogo/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an IMU log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const logColumns = `id, session_id, ts, heading, direction, pitch, roll, yaw,
	accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, mag_x, mag_y, mag_z,
	velocity, pos_x, pos_y, dist_total, log_date, created_at`

// GetByID returns the log for id if the scope owns it, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*domain.Log, error) {
	q := `SELECT ` + logColumns + ` FROM imu_logs WHERE id = $1 AND user_id = $2 AND device_id = $3`
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

// ListByScope returns all logs for the scope in chronological order.
func (r *PostgresRepository) ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Log, error) {
	q := `SELECT ` + logColumns + `
		FROM imu_logs
		WHERE user_id = $1 AND device_id = $2
		ORDER BY ts ASC`
	return r.queryLogs(ctx, scope, q, scope.UserID, scope.DeviceID)
}

// ListByDate returns logs for the scope on the given report-zone date,
// optionally restricted to one session, chronological.
func (r *PostgresRepository) ListByDate(ctx context.Context, scope sessiondomain.Scope, date string, sessionID int) ([]*domain.Log, error) {
	q := `SELECT ` + logColumns + `
		FROM imu_logs
		WHERE user_id = $1 AND device_id = $2 AND log_date = $3`
	args := []any{scope.UserID, scope.DeviceID, date}
	if sessionID > 0 {
		q += ` AND session_id = $4`
		args = append(args, sessionID)
	}
	q += ` ORDER BY ts ASC`
	return r.queryLogs(ctx, scope, q, args...)
}

// Exists probes the finalization natural key.
func (r *PostgresRepository) Exists(ctx context.Context, scope sessiondomain.Scope, sessionID int, ts time.Time, heading float64, direction string) (bool, error) {
	const q = `SELECT 1 FROM imu_logs
		WHERE user_id = $1 AND device_id = $2 AND session_id = $3 AND ts = $4 AND heading = $5 AND direction = $6
		LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, scope.UserID, scope.DeviceID, sessionID, ts, heading, direction).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListDateSessions returns every log date for the scope with its distinct
// session ids, dates and sessions ascending.
func (r *PostgresRepository) ListDateSessions(ctx context.Context, scope sessiondomain.Scope) ([]DateSessions, error) {
	const q = `SELECT DISTINCT log_date, session_id
		FROM imu_logs
		WHERE user_id = $1 AND device_id = $2
		ORDER BY log_date ASC, session_id ASC`
	rows, err := r.db.QueryContext(ctx, q, scope.UserID, scope.DeviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DateSessions
	for rows.Next() {
		var (
			date      string
			sessionID int
		)
		if err := rows.Scan(&date, &sessionID); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].Sessions = append(out[n-1].Sessions, sessionID)
			continue
		}
		out = append(out, DateSessions{Date: date, Sessions: []int{sessionID}})
	}
	return out, rows.Err()
}

// MaxSessionID returns the highest finalized session id for the scope, 0 when none.
func (r *PostgresRepository) MaxSessionID(ctx context.Context, scope sessiondomain.Scope) (int, error) {
	const q = `SELECT COALESCE(MAX(session_id), 0) FROM imu_logs WHERE user_id = $1 AND device_id = $2`
	var max int
	if err := r.db.QueryRowContext(ctx, q, scope.UserID, scope.DeviceID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// InsertTx queues the log into an open finalization transaction.
func (r *PostgresRepository) InsertTx(ctx context.Context, tx *sql.Tx, l *domain.Log) error {
	const q = `
		INSERT INTO imu_logs
			(id, user_id, device_id, session_id, ts, heading, direction, pitch, roll, yaw,
			 accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, mag_x, mag_y, mag_z,
			 velocity, pos_x, pos_y, dist_total, log_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25)`
	_, err := tx.ExecContext(ctx, q,
		l.ID, l.UserID, l.DeviceID, l.SessionID, l.Timestamp, l.Heading, l.Direction,
		l.Pitch, l.Roll, l.Yaw,
		l.Acceleration.X, l.Acceleration.Y, l.Acceleration.Z,
		l.Gyroscope.X, l.Gyroscope.Y, l.Gyroscope.Z,
		l.Magnetometer.X, l.Magnetometer.Y, l.Magnetometer.Z,
		l.Velocity, l.Position.X, l.Position.Y, l.DistTotal, l.Date, l.CreatedAt,
	)
	return err
}

// Delete removes the log if the scope owns it. ok is false when no owned row matched.
func (r *PostgresRepository) Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error) {
	const q = `DELETE FROM imu_logs WHERE id = $1 AND user_id = $2 AND device_id = $3`
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
	var l domain.Log
	err := row.Scan(
		&l.ID, &l.SessionID, &l.Timestamp, &l.Heading, &l.Direction,
		&l.Pitch, &l.Roll, &l.Yaw,
		&l.Acceleration.X, &l.Acceleration.Y, &l.Acceleration.Z,
		&l.Gyroscope.X, &l.Gyroscope.Y, &l.Gyroscope.Z,
		&l.Magnetometer.X, &l.Magnetometer.Y, &l.Magnetometer.Z,
		&l.Velocity, &l.Position.X, &l.Position.Y, &l.DistTotal, &l.Date, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.UserID = scope.UserID
	l.DeviceID = scope.DeviceID
	return &l, nil
}

var _ Repository = (*PostgresRepository)(nil)
