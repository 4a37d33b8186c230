package repository

import (
	"context"

	"robogo/backend/internal/image/domain"
	sessiondomain "robogo/backend/internal/session/domain"
)

// Repository defines persistence for image records.
type Repository interface {
	Create(ctx context.Context, img *domain.Image) error
	GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*domain.Image, error)
	ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Image, error)
	ListBySession(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Image, error)
	// Delete removes the record if the scope owns it; ok is false when no owned row matched.
	Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error)
}
