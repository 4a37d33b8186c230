package buffer

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	sessiondomain "robogo/backend/internal/session/domain"
	"robogo/backend/internal/telemetry/domain"
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a buffer store that uses the given db for persistence.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const bufferColumns = `id, session_id, ts, obstacle, rssi, session_status, metadata,
	image_filename, image_path, image_url, taken_with, created_at`

// Append writes the record under a generated UUID key and returns the key.
func (s *PostgresStore) Append(ctx context.Context, scope sessiondomain.Scope, rec *domain.Record) (string, error) {
	key := uuid.New().String()
	meta, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return "", err
	}
	var filename, path, url, takenWith sql.NullString
	if rec.Image != nil {
		filename = nullString(rec.Image.Filename)
		path = nullString(rec.Image.Path)
		url = nullString(rec.Image.URL)
		takenWith = nullString(rec.Image.TakenWith)
	}
	const q = `
		INSERT INTO telemetry_buffer
			(id, user_id, device_id, session_id, ts, obstacle, rssi, session_status,
			 metadata, image_filename, image_path, image_url, taken_with, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = s.db.ExecContext(ctx, q,
		key, scope.UserID, scope.DeviceID, rec.SessionID, rec.Timestamp, rec.Obstacle,
		rec.RSSI, rec.SessionStatus, meta, filename, path, url, takenWith, rec.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return key, nil
}

// Session returns every buffered record for the session, oldest first.
func (s *PostgresStore) Session(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Record, error) {
	q := `SELECT ` + bufferColumns + `
		FROM telemetry_buffer
		WHERE user_id = $1 AND device_id = $2 AND session_id = $3
		ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, q, scope.UserID, scope.DeviceID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Last returns the most recently appended record for the session, or nil.
func (s *PostgresStore) Last(ctx context.Context, scope sessiondomain.Scope, sessionID int) (*domain.Record, error) {
	q := `SELECT ` + bufferColumns + `
		FROM telemetry_buffer
		WHERE user_id = $1 AND device_id = $2 AND session_id = $3
		ORDER BY created_at DESC
		LIMIT 1`
	rows, err := s.db.QueryContext(ctx, q, scope.UserID, scope.DeviceID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows, scope)
}

// Remove deletes all buffered records for the session.
func (s *PostgresStore) Remove(ctx context.Context, scope sessiondomain.Scope, sessionID int) error {
	const q = `DELETE FROM telemetry_buffer WHERE user_id = $1 AND device_id = $2 AND session_id = $3`
	_, err := s.db.ExecContext(ctx, q, scope.UserID, scope.DeviceID, sessionID)
	return err
}

func scanRecord(rows *sql.Rows, scope sessiondomain.Scope) (*domain.Record, error) {
	var (
		rec  domain.Record
		meta []byte

		filename, path, url, takenWith sql.NullString
	)
	err := rows.Scan(
		&rec.Key, &rec.SessionID, &rec.Timestamp, &rec.Obstacle, &rec.RSSI,
		&rec.SessionStatus, &meta, &filename, &path, &url, &takenWith, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.UserID = scope.UserID
	rec.DeviceID = scope.DeviceID
	rec.Metadata, err = unmarshalMetadata(meta)
	if err != nil {
		return nil, err
	}
	if filename.Valid || path.Valid || url.Valid || takenWith.Valid {
		rec.Image = &domain.ImageRef{
			Filename:  filename.String,
			Path:      path.String,
			URL:       url.String,
			TakenWith: takenWith.String,
		}
	}
	return &rec, nil
}

// marshalMetadata encodes metadata as JSONB; nil metadata is stored as SQL
// null so reads can distinguish "no snapshot" from an empty one.
func marshalMetadata(m *domain.Metadata) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func unmarshalMetadata(b []byte) (*domain.Metadata, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m domain.Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Store = (*PostgresStore)(nil)
