// Package service implements the session lifecycle: starting the per-scope
// counter, stopping it, and moving the session's buffered telemetry into the
// durable log stores.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"robogo/backend/internal/events"
	imurepo "robogo/backend/internal/imu/repository"
	"robogo/backend/internal/session/domain"
	sessionrepo "robogo/backend/internal/session/repository"
	ultrarepo "robogo/backend/internal/ultrasonic/repository"
)

// StopResult is the response body of a session stop: the finalized session,
// its report date, and the per-table import report.
type StopResult struct {
	Stopped   bool         `json:"stopped"`
	SessionID int          `json:"sessionId"`
	Date      string       `json:"date"`
	Imported  ImportReport `json:"importedReport"`
}

// Manager owns the session lifecycle for every scope. All transitions for one
// scope are serialized through a per-scope mutex, so concurrent start/stop
// calls from a flaky controller cannot interleave finalization.
type Manager struct {
	counters  sessionrepo.Repository
	ultra     ultrarepo.Repository
	imu       imurepo.Repository
	finalizer *Finalizer
	emitter   events.Emitter

	mu    sync.Mutex
	locks map[domain.Scope]*sync.Mutex
}

// NewManager creates a session manager. emitter may be nil.
func NewManager(counters sessionrepo.Repository, ultra ultrarepo.Repository, imu imurepo.Repository, finalizer *Finalizer, emitter events.Emitter) *Manager {
	return &Manager{
		counters:  counters,
		ultra:     ultra,
		imu:       imu,
		finalizer: finalizer,
		emitter:   emitter,
		locks:     make(map[domain.Scope]*sync.Mutex),
	}
}

func (m *Manager) lockFor(scope domain.Scope) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[scope]
	if !ok {
		l = &sync.Mutex{}
		m.locks[scope] = l
	}
	return l
}

// Start activates a session for the scope and returns its id. Starting while
// a session is already running is not an error: the running session's id is
// returned with resumed=true, so a reconnecting controller picks up where it
// left off. New session ids never reuse a finalized id, even after the
// counter was reset.
func (m *Manager) Start(ctx context.Context, scope domain.Scope) (sessionID int, resumed bool, err error) {
	l := m.lockFor(scope)
	l.Lock()
	defer l.Unlock()

	c, err := m.counters.Get(ctx, scope)
	if err != nil {
		return 0, false, err
	}
	if c.Active() {
		return c.Current, true, nil
	}

	next, err := m.nextSessionID(ctx, scope, c)
	if err != nil {
		return 0, false, err
	}
	if err := m.counters.Set(ctx, scope, next); err != nil {
		return 0, false, err
	}

	events.EmitAsync(m.emitter, events.Event{
		Type:      events.TypeSessionStarted,
		UserID:    scope.UserID,
		DeviceID:  scope.DeviceID,
		SessionID: next,
		Timestamp: time.Now().UTC(),
	})
	log.Printf("session: started %d for %s/%s", next, scope.UserID, scope.DeviceID)
	return next, false, nil
}

// nextSessionID picks the successor of the highest session id this scope has
// ever used, across the counter and both finalized stores. The counter alone
// is not enough: it is reset to the inactive value after every stop.
func (m *Manager) nextSessionID(ctx context.Context, scope domain.Scope, c *domain.Counter) (int, error) {
	max := domain.Inactive
	if c != nil && c.Current > max {
		max = c.Current
	}
	ultraMax, err := m.ultra.MaxSessionID(ctx, scope)
	if err != nil {
		return 0, err
	}
	if ultraMax > max {
		max = ultraMax
	}
	imuMax, err := m.imu.MaxSessionID(ctx, scope)
	if err != nil {
		return 0, err
	}
	if imuMax > max {
		max = imuMax
	}
	return max + 1, nil
}

// Stop finalizes the running session and resets the counter. Stopping with no
// running session is a soft no-op: Stopped is false and no error is returned,
// since a repeated stop from a flaky controller is routine, not a fault. The
// counter is reset even when the import batch fails, so the robot is never
// stuck in a session it cannot leave; the buffered telemetry is kept in that
// case for a manual re-import.
func (m *Manager) Stop(ctx context.Context, scope domain.Scope) (*StopResult, error) {
	l := m.lockFor(scope)
	l.Lock()
	defer l.Unlock()

	c, err := m.counters.Get(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return &StopResult{Stopped: false}, nil
	}
	sessionID := c.Current

	report, date, ferr := m.finalizer.Finalize(ctx, scope, sessionID)

	if err := m.counters.Set(ctx, scope, domain.Inactive); err != nil {
		return nil, fmt.Errorf("session: reset counter: %w", err)
	}

	events.EmitAsync(m.emitter, events.Event{
		Type:      events.TypeSessionStopped,
		UserID:    scope.UserID,
		DeviceID:  scope.DeviceID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	})
	if ferr != nil {
		return nil, ferr
	}

	result := &StopResult{
		Stopped:   true,
		SessionID: sessionID,
		Date:      date,
		Imported:  *report,
	}
	events.EmitAsync(m.emitter, events.Event{
		Type:      events.TypeSessionFinalized,
		UserID:    scope.UserID,
		DeviceID:  scope.DeviceID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Detail: map[string]any{
			"ultrasonic": result.Imported.Ultrasonic,
			"imu":        result.Imported.IMU,
		},
	})
	log.Printf("session: stopped %d for %s/%s (ultrasonic %d rows, imu %d rows)",
		sessionID, scope.UserID, scope.DeviceID,
		result.Imported.Ultrasonic.TotalData, result.Imported.IMU.TotalData)
	return result, nil
}

// Current returns the scope's running session id, or the inactive value when
// no session is running.
func (m *Manager) Current(ctx context.Context, scope domain.Scope) (int, error) {
	c, err := m.counters.Get(ctx, scope)
	if err != nil {
		return 0, err
	}
	if !c.Active() {
		return domain.Inactive, nil
	}
	return c.Current, nil
}
