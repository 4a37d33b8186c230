// Package buffer is the append-only store holding raw in-session telemetry
// until finalization moves it into the durable record stores.
package buffer

import (
	"context"

	sessiondomain "robogo/backend/internal/session/domain"
	"robogo/backend/internal/telemetry/domain"
)

// Store defines the append-only buffer for in-session telemetry.
type Store interface {
	// Append writes the record under a generated unique key and returns the key.
	Append(ctx context.Context, scope sessiondomain.Scope, rec *domain.Record) (string, error)
	// Session returns every buffered record for the session, ordered by
	// createdAt ascending. Missing data is (nil, nil), not an error.
	Session(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Record, error)
	// Last returns the most recently appended record for the session, or nil.
	Last(ctx context.Context, scope sessiondomain.Scope, sessionID int) (*domain.Record, error)
	// Remove deletes all buffered records for the session.
	Remove(ctx context.Context, scope sessiondomain.Scope, sessionID int) error
}
