package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"robogo/backend/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const deviceColumns = `id, name, user_id, created_at, updated_at`

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	q := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`
	return scanDevice(r.db.QueryRowContext(ctx, q, id))
}

// GetByName returns the device with the given unique name, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Device, error) {
	q := `SELECT ` + deviceColumns + ` FROM devices WHERE name = $1`
	return scanDevice(r.db.QueryRowContext(ctx, q, name))
}

// ListByUser returns the user's devices, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Device, error) {
	q := `SELECT ` + deviceColumns + ` FROM devices WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Device
	for rows.Next() {
		var (
			d     domain.Device
			owner sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &owner, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.UserID = owner.String
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Create persists the device. The device must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	const q = `
		INSERT INTO devices (id, name, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, d.ID, d.Name, nullOwner(d.UserID), d.CreatedAt, d.UpdatedAt)
	return err
}

// Assign sets the device's owner. An empty userID unassigns it.
func (r *PostgresRepository) Assign(ctx context.Context, id, userID string) error {
	const q = `UPDATE devices SET user_id = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, nullOwner(userID), time.Now().UTC())
	return err
}

func nullOwner(userID string) sql.NullString {
	if userID == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: userID, Valid: true}
}

func scanDevice(row *sql.Row) (*domain.Device, error) {
	var (
		d      domain.Device
		userID sql.NullString
	)
	err := row.Scan(&d.ID, &d.Name, &userID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.UserID = userID.String
	return &d, nil
}

var _ Repository = (*PostgresRepository)(nil)
