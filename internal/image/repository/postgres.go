package repository

import (
	"context"
	"database/sql"
	"errors"

	"robogo/backend/internal/image/domain"
	sessiondomain "robogo/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an image repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const imageColumns = `id, session_id, filename, path, url, obstacle, metadata, created_at`

// Create persists the image record.
func (r *PostgresRepository) Create(ctx context.Context, img *domain.Image) error {
	meta := img.Metadata
	if meta == nil {
		meta = []byte("{}")
	}
	const q = `
		INSERT INTO images (id, user_id, device_id, session_id, filename, path, url, obstacle, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, q,
		img.ID, img.UserID, img.DeviceID, img.SessionID, img.Filename, img.Path, img.URL,
		img.Obstacle, meta, img.CreatedAt,
	)
	return err
}

// GetByID returns the image record for id if the scope owns it, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*domain.Image, error) {
	q := `SELECT ` + imageColumns + ` FROM images WHERE id = $1 AND user_id = $2 AND device_id = $3`
	row := r.db.QueryRowContext(ctx, q, id, scope.UserID, scope.DeviceID)
	img, err := scanImage(row, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}

// ListByScope returns all image records for the scope, oldest first.
func (r *PostgresRepository) ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Image, error) {
	q := `SELECT ` + imageColumns + `
		FROM images
		WHERE user_id = $1 AND device_id = $2
		ORDER BY created_at ASC`
	return r.queryImages(ctx, scope, q, scope.UserID, scope.DeviceID)
}

// ListBySession returns the session's image records, oldest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Image, error) {
	q := `SELECT ` + imageColumns + `
		FROM images
		WHERE user_id = $1 AND device_id = $2 AND session_id = $3
		ORDER BY created_at ASC`
	return r.queryImages(ctx, scope, q, scope.UserID, scope.DeviceID, sessionID)
}

// Delete removes the record if the scope owns it. ok is false when no owned row matched.
func (r *PostgresRepository) Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error) {
	const q = `DELETE FROM images WHERE id = $1 AND user_id = $2 AND device_id = $3`
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

func (r *PostgresRepository) queryImages(ctx context.Context, scope sessiondomain.Scope, q string, args ...any) ([]*domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Image
	for rows.Next() {
		img, err := scanImage(rows, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner, scope sessiondomain.Scope) (*domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.SessionID, &img.Filename, &img.Path, &img.URL, &img.Obstacle, &img.Metadata, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	img.UserID = scope.UserID
	img.DeviceID = scope.DeviceID
	return &img, nil
}

var _ Repository = (*PostgresRepository)(nil)
