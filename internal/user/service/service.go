// Package service implements operator registration and login.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	devicedomain "robogo/backend/internal/device/domain"
	"robogo/backend/internal/security"
	"robogo/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrNoDevice               = errors.New("no device assigned to user")
	ErrDeviceNotOwned         = errors.New("device is not assigned to user")
)

// ValidationError marks malformed input. Handlers surface the message
// verbatim with a 400 status.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// AuthResult holds the outcome of Register (user id only) or Login (token +
// the device scope it is bound to).
type AuthResult struct {
	UserID      string
	DeviceID    string
	AccessToken string
	ExpiresAt   time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// DeviceResolver is the minimal device lookup needed to bind a login to a robot.
type DeviceResolver interface {
	Resolve(ctx context.Context, name string) (*devicedomain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]*devicedomain.Device, error)
}

// AuthService implements password register and login. Every access token is
// bound to one of the user's robots; telemetry endpoints derive their scope
// from the token alone.
type AuthService struct {
	users   UserRepo
	devices DeviceResolver
	hasher  *security.Hasher
	tokens  *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, devices DeviceResolver, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{users: users, devices: devices, hasher: hasher, tokens: tokens}
}

// Register creates a user with the given email and password. Returns
// AuthResult with UserID only; the caller must Login to get a token.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return &AuthResult{UserID: user.ID}, nil
}

// Login authenticates with email/password and binds the token to a robot.
// deviceName selects one of the user's devices; when empty the user's first
// device is used. A user with no device cannot log in to the telemetry API.
func (s *AuthService) Login(ctx context.Context, email, password, deviceName string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	device, err := s.loginDevice(ctx, user.ID, deviceName)
	if err != nil {
		return nil, err
	}

	token, _, expiresAt, err := s.tokens.IssueAccess(user.ID, device.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		UserID:      user.ID,
		DeviceID:    device.ID,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthService) loginDevice(ctx context.Context, userID, deviceName string) (*devicedomain.Device, error) {
	deviceName = strings.TrimSpace(deviceName)
	if deviceName != "" {
		d, err := s.devices.Resolve(ctx, deviceName)
		if err != nil {
			return nil, err
		}
		if d.UserID != userID {
			// Ownership mismatch reads the same as an unknown device.
			return nil, ErrDeviceNotOwned
		}
		return d, nil
	}
	list, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoDevice
	}
	return list[0], nil
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{msg: "email is required"}
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return &ValidationError{msg: "invalid email format"}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{msg: "password must be at least 8 characters"}
	}
	return nil
}
