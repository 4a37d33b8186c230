// Package service manages robot devices and the name-to-owner lookup cache
// used on the hot ingestion path.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"robogo/backend/internal/device/domain"
	"robogo/backend/internal/device/repository"
)

// Sentinel errors for the device service; handlers map them to HTTP codes.
var (
	ErrNameTaken      = errors.New("device name already registered")
	ErrDeviceNotFound = errors.New("device not found")
)

type cacheEntry struct {
	device    *domain.Device
	expiresAt time.Time
}

// Service manages devices. Name lookups go through a TTL cache with lazy
// expiry; Assign invalidates the cached entry so a reassigned device never
// serves its old owner for the rest of the TTL.
type Service struct {
	repo repository.Repository
	ttl  time.Duration
	nowF func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewService creates a device service with the given name-cache TTL.
func NewService(repo repository.Repository, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		ttl:   ttl,
		nowF:  time.Now().UTC,
		cache: make(map[string]cacheEntry),
	}
}

// Register creates a device with the given unique name, optionally already
// assigned to a user.
func (s *Service) Register(ctx context.Context, name, userID string) (*domain.Device, error) {
	name = strings.TrimSpace(name)
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNameTaken
	}
	now := s.nowF()
	d := &domain.Device{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Resolve returns the device with the given name, from cache when fresh.
// Expired entries are evicted on read, not swept.
func (s *Service) Resolve(ctx context.Context, name string) (*domain.Device, error) {
	name = strings.TrimSpace(name)

	s.mu.RLock()
	e, ok := s.cache[name]
	s.mu.RUnlock()
	if ok && e.expiresAt.After(s.nowF()) {
		return e.device, nil
	}
	if ok {
		s.mu.Lock()
		delete(s.cache, name)
		s.mu.Unlock()
	}

	d, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeviceNotFound
	}
	s.mu.Lock()
	s.cache[name] = cacheEntry{device: d, expiresAt: s.nowF().Add(s.ttl)}
	s.mu.Unlock()
	return d, nil
}

// Assign changes the device's owner and invalidates its cache entry.
func (s *Service) Assign(ctx context.Context, id, userID string) (*domain.Device, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeviceNotFound
	}
	if err := s.repo.Assign(ctx, id, userID); err != nil {
		return nil, err
	}
	s.Invalidate(d.Name)
	d.UserID = userID
	return d, nil
}

// Invalidate drops the cached entry for a device name. Called on
// reassignment; harmless when the name is not cached.
func (s *Service) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, strings.TrimSpace(name))
	s.mu.Unlock()
}

// ListByUser returns the user's devices, oldest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}
