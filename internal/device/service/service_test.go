package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"robogo/backend/internal/device/domain"
)

type fakeRepo struct {
	mu         sync.Mutex
	devices    map[string]*domain.Device
	nameLookup int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{devices: make(map[string]*domain.Device)} }

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) GetByName(ctx context.Context, name string) (*domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameLookup++
	for _, d := range f.devices {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Device
	for _, d := range f.devices {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, d *domain.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.devices[d.ID] = &cp
	return nil
}

func (f *fakeRepo) Assign(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[id]
	if !ok {
		return errors.New("not found")
	}
	d.UserID = userID
	return nil
}

func (f *fakeRepo) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameLookup
}

func TestRegister_RejectsDuplicateName(t *testing.T) {
	svc := NewService(newFakeRepo(), time.Minute)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "robot-1", "u1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "robot-1", "u2"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("duplicate name: got %v, want ErrNameTaken", err)
	}
}

func TestResolve_CachesByName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.Minute)
	ctx := context.Background()
	d, err := svc.Register(ctx, "robot-1", "u1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	before := repo.lookups()

	for i := 0; i < 3; i++ {
		got, err := svc.Resolve(ctx, "robot-1")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got.ID != d.ID {
			t.Fatalf("Resolve: got %q, want %q", got.ID, d.ID)
		}
	}
	// First resolve hits the repo and fills the cache; the rest must not.
	if got := repo.lookups() - before; got != 1 {
		t.Errorf("repo lookups: %d, want 1", got)
	}
}

func TestResolve_ExpiredEntryRefetches(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.Minute)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "robot-1", "u1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	now := time.Now().UTC()
	svc.nowF = func() time.Time { return now }
	if _, err := svc.Resolve(ctx, "robot-1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	before := repo.lookups()

	svc.nowF = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := svc.Resolve(ctx, "robot-1"); err != nil {
		t.Fatalf("Resolve after expiry: %v", err)
	}
	if got := repo.lookups() - before; got != 1 {
		t.Errorf("repo lookups after expiry: %d, want 1", got)
	}
}

func TestResolve_UnknownName(t *testing.T) {
	svc := NewService(newFakeRepo(), time.Minute)
	if _, err := svc.Resolve(context.Background(), "ghost"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("unknown name: got %v, want ErrDeviceNotFound", err)
	}
}

func TestAssign_InvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()
	d, err := svc.Register(ctx, "robot-1", "u1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Resolve(ctx, "robot-1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if _, err := svc.Assign(ctx, d.ID, "u2"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	got, err := svc.Resolve(ctx, "robot-1")
	if err != nil {
		t.Fatalf("Resolve after assign: %v", err)
	}
	if got.UserID != "u2" {
		t.Errorf("owner after assign: %q, want u2 (stale cache served)", got.UserID)
	}
}

func TestAssign_UnknownDevice(t *testing.T) {
	svc := NewService(newFakeRepo(), time.Minute)
	if _, err := svc.Assign(context.Background(), "missing", "u1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("unknown device: got %v, want ErrDeviceNotFound", err)
	}
}
