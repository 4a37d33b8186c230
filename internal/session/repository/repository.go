package repository

import (
	"context"

	"robogo/backend/internal/session/domain"
)

// Repository defines persistence for per-scope session counters.
type Repository interface {
	// Get returns the counter for the scope, or nil if the scope has never started a session.
	Get(ctx context.Context, scope domain.Scope) (*domain.Counter, error)
	// Set writes the counter value for the scope, creating the row if needed.
	Set(ctx context.Context, scope domain.Scope, value int) error
	// AdvanceTo raises the counter to value if value is greater than the stored
	// one; lower values are ignored. Creates the row if needed.
	AdvanceTo(ctx context.Context, scope domain.Scope, value int) error
}
