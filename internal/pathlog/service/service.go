// Package service implements direct path-log ingestion. Odometry samples
// bypass the session buffer and go straight to the durable store; the
// dashboard draws the live path from here.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"robogo/backend/internal/pathlog/domain"
	"robogo/backend/internal/pathlog/repository"
	sessiondomain "robogo/backend/internal/session/domain"
	sessionrepo "robogo/backend/internal/session/repository"
	ultradomain "robogo/backend/internal/ultrasonic/domain"
)

// ErrNoActiveSession is returned when a path sample arrives for a scope with
// no running session.
var ErrNoActiveSession = errors.New("no active session")

// Input is one odometry sample from the controller. Distance is the forward
// ultrasonic reading in meters, nil when the sensor gave no reading.
type Input struct {
	X        float64
	Y        float64
	Speed    float64
	Heading  float64
	Distance *float64
}

// Result is the stored log plus the alert derived for the live dashboard.
// The alert uses the meter-scale thresholds, unlike finalized ultrasonic logs
// which bucket centimeters; the two scales are intentionally separate.
type Result struct {
	Log      *domain.Log
	Alert    ultradomain.AlertLevel
	Obstacle bool
}

// Service ingests and serves path logs.
type Service struct {
	counters sessionrepo.Repository
	repo     repository.Repository
	now      func() time.Time
}

// NewService creates a path-log service.
func NewService(counters sessionrepo.Repository, repo repository.Repository) *Service {
	return &Service{
		counters: counters,
		repo:     repo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ingest stores one odometry sample under the running session and derives the
// motion status and obstacle alert.
func (s *Service) Ingest(ctx context.Context, scope sessiondomain.Scope, in Input) (*Result, error) {
	c, err := s.counters.Get(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return nil, ErrNoActiveSession
	}

	l := &domain.Log{
		ID:        uuid.NewString(),
		UserID:    scope.UserID,
		DeviceID:  scope.DeviceID,
		SessionID: c.Current,
		X:         in.X,
		Y:         in.Y,
		Speed:     in.Speed,
		Heading:   in.Heading,
		Status:    domain.StatusFor(in.Speed),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	alert := ultradomain.AlertLevelMeters(in.Distance)
	return &Result{Log: l, Alert: alert, Obstacle: alert.Obstacle()}, nil
}
