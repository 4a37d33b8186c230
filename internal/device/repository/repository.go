package repository

import (
	"context"

	"robogo/backend/internal/device/domain"
)

// Repository defines persistence for robot devices.
type Repository interface {
	// GetByID returns the device for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	// GetByName returns the device with the given unique name, or nil if not found.
	GetByName(ctx context.Context, name string) (*domain.Device, error)
	// ListByUser returns the user's devices, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Device, error)
	// Create persists the device. The device must have ID set.
	Create(ctx context.Context, d *domain.Device) error
	// Assign sets the device's owner. An empty userID unassigns it.
	Assign(ctx context.Context, id, userID string) error
}
