package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	devicedomain "robogo/backend/internal/device/domain"
	"robogo/backend/internal/security"
	"robogo/backend/internal/user/domain"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by email
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: make(map[string]*domain.User)} }

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

type fakeDevices struct {
	byName map[string]*devicedomain.Device
	byUser map[string][]*devicedomain.Device
}

func (f *fakeDevices) Resolve(ctx context.Context, name string) (*devicedomain.Device, error) {
	d, ok := f.byName[name]
	if !ok {
		return nil, errors.New("device not found")
	}
	return d, nil
}

func (f *fakeDevices) ListByUser(ctx context.Context, userID string) ([]*devicedomain.Device, error) {
	return f.byUser[userID], nil
}

func newTestAuth(t *testing.T, devices *fakeDevices) (*AuthService, *fakeUsers) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if devices == nil {
		devices = &fakeDevices{byName: map[string]*devicedomain.Device{}, byUser: map[string][]*devicedomain.Device{}}
	}
	users := newFakeUsers()
	return NewAuthService(users, devices, security.NewHasher(4), tokens), users
}

func TestRegister_CreatesUser(t *testing.T) {
	svc, users := newTestAuth(t, nil)
	res, err := svc.Register(context.Background(), " Pilot@Example.COM ", "longenough", "Pilot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.UserID == "" {
		t.Fatal("no user id")
	}
	u, _ := users.GetByEmail(context.Background(), "pilot@example.com")
	if u == nil {
		t.Fatal("email was not normalized to lowercase")
	}
	if u.PasswordHash == "longenough" {
		t.Error("password stored in plaintext")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuth(t, nil)
	ctx := context.Background()

	var verr *ValidationError
	if _, err := svc.Register(ctx, "not-an-email", "longenough", ""); !errors.As(err, &verr) {
		t.Errorf("bad email: got %v, want ValidationError", err)
	}
	if _, err := svc.Register(ctx, "a@b.co", "short", ""); !errors.As(err, &verr) {
		t.Errorf("short password: got %v, want ValidationError", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth(t, nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "a@b.co", "longenough", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "A@B.CO", "longenough", ""); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("duplicate email: got %v", err)
	}
}

func TestLogin_IssuesDeviceBoundToken(t *testing.T) {
	devices := &fakeDevices{
		byName: map[string]*devicedomain.Device{},
		byUser: map[string][]*devicedomain.Device{},
	}
	svc, _ := newTestAuth(t, devices)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "a@b.co", "longenough", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	robot := &devicedomain.Device{ID: "dev-1", Name: "robot-1", UserID: reg.UserID}
	devices.byName["robot-1"] = robot
	devices.byUser[reg.UserID] = []*devicedomain.Device{robot}

	res, err := svc.Login(ctx, "a@b.co", "longenough", "robot-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.DeviceID != "dev-1" || res.UserID != reg.UserID {
		t.Errorf("login result: %+v", res)
	}

	// Empty device name falls back to the user's first robot.
	res, err = svc.Login(ctx, "a@b.co", "longenough", "")
	if err != nil {
		t.Fatalf("Login default device: %v", err)
	}
	if res.DeviceID != "dev-1" {
		t.Errorf("default device: %q", res.DeviceID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuth(t, nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "a@b.co", "longenough", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.co", "wrong-password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@b.co", "longenough", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestLogin_DeviceOwnership(t *testing.T) {
	devices := &fakeDevices{
		byName: map[string]*devicedomain.Device{
			"robot-x": {ID: "dev-x", Name: "robot-x", UserID: "someone-else"},
		},
		byUser: map[string][]*devicedomain.Device{},
	}
	svc, _ := newTestAuth(t, devices)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "a@b.co", "longenough", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "a@b.co", "longenough", "robot-x"); !errors.Is(err, ErrDeviceNotOwned) {
		t.Errorf("foreign device: got %v, want ErrDeviceNotOwned", err)
	}
	if _, err := svc.Login(ctx, "a@b.co", "longenough", ""); !errors.Is(err, ErrNoDevice) {
		t.Errorf("no devices: got %v, want ErrNoDevice", err)
	}
}
