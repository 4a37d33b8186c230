package repository

import (
	"context"
	"database/sql"
	"time"

	"robogo/backend/internal/imu/domain"
	sessiondomain "robogo/backend/internal/session/domain"
)

// DateSessions groups one report-zone date with the distinct session ids
// logged on it, ascending.
type DateSessions struct {
	Date     string
	Sessions []int
}

// Repository defines persistence for finalized IMU logs.
type Repository interface {
	GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*domain.Log, error)
	// ListByScope returns all logs for the scope in chronological order.
	ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Log, error)
	// ListByDate returns logs for the scope on the given report-zone date,
	// optionally restricted to one session (sessionID > 0), chronological.
	ListByDate(ctx context.Context, scope sessiondomain.Scope, date string, sessionID int) ([]*domain.Log, error)
	// Exists probes the natural key (session, timestamp, heading, direction)
	// used for finalization dedup.
	Exists(ctx context.Context, scope sessiondomain.Scope, sessionID int, ts time.Time, heading float64, direction string) (bool, error)
	// ListDateSessions returns every date the scope has logs on, with the
	// distinct session ids per date, dates ascending.
	ListDateSessions(ctx context.Context, scope sessiondomain.Scope) ([]DateSessions, error)
	// MaxSessionID returns the highest finalized session id for the scope, 0 when none.
	MaxSessionID(ctx context.Context, scope sessiondomain.Scope) (int, error)
	// InsertTx queues the log into an open finalization transaction.
	InsertTx(ctx context.Context, tx *sql.Tx, l *domain.Log) error
	// Delete removes the log if the scope owns it; ok is false when no owned row matched.
	Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error)
}
