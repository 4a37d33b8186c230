package repository

import (
	"context"

	"robogo/backend/internal/pathlog/domain"
	sessiondomain "robogo/backend/internal/session/domain"
)

// Repository defines persistence for path logs.
type Repository interface {
	Create(ctx context.Context, l *domain.Log) error
	GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*domain.Log, error)
	// ListBySession returns the session's path samples in chronological order.
	ListBySession(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Log, error)
	ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Log, error)
	// Delete removes the log if the scope owns it; ok is false when no owned row matched.
	Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error)
}
