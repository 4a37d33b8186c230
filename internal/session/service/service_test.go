package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	imudomain "robogo/backend/internal/imu/domain"
	imurepo "robogo/backend/internal/imu/repository"
	"robogo/backend/internal/records"
	"robogo/backend/internal/session/domain"
	"robogo/backend/internal/telemetry/buffer"
	telemetrydomain "robogo/backend/internal/telemetry/domain"
	ultradomain "robogo/backend/internal/ultrasonic/domain"
	ultrarepo "robogo/backend/internal/ultrasonic/repository"
)

type fakeCounters struct {
	mu     sync.Mutex
	m      map[domain.Scope]int
	setErr error
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{m: make(map[domain.Scope]int)}
}

func (f *fakeCounters) Get(ctx context.Context, scope domain.Scope) (*domain.Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[scope]
	if !ok {
		return nil, nil
	}
	return &domain.Counter{Scope: scope, Current: v, UpdatedAt: time.Now().UTC()}, nil
}

func (f *fakeCounters) Set(ctx context.Context, scope domain.Scope, value int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[scope] = value
	return nil
}

func (f *fakeCounters) AdvanceTo(ctx context.Context, scope domain.Scope, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value > f.m[scope] {
		f.m[scope] = value
	}
	return nil
}

type fakeUltra struct {
	mu   sync.Mutex
	logs []*ultradomain.Log
}

func (f *fakeUltra) GetByID(ctx context.Context, scope domain.Scope, id string) (*ultradomain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.ID == id && l.UserID == scope.UserID && l.DeviceID == scope.DeviceID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeUltra) ListByScope(ctx context.Context, scope domain.Scope) ([]*ultradomain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ultradomain.Log
	for _, l := range f.logs {
		if l.UserID == scope.UserID && l.DeviceID == scope.DeviceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeUltra) ListByDate(ctx context.Context, scope domain.Scope, date string, sessionID int) ([]*ultradomain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ultradomain.Log
	for _, l := range f.logs {
		if l.UserID != scope.UserID || l.DeviceID != scope.DeviceID || l.Date != date {
			continue
		}
		if sessionID > 0 && l.SessionID != sessionID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeUltra) Exists(ctx context.Context, scope domain.Scope, sessionID int, ts time.Time, distance float64, imageID *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.UserID != scope.UserID || l.DeviceID != scope.DeviceID || l.SessionID != sessionID {
			continue
		}
		if !l.Timestamp.Equal(ts) || l.Distance != distance {
			continue
		}
		if (l.ImageID == nil) != (imageID == nil) {
			continue
		}
		if l.ImageID != nil && *l.ImageID != *imageID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (f *fakeUltra) ListDateSessions(ctx context.Context, scope domain.Scope) ([]ultrarepo.DateSessions, error) {
	return nil, nil
}

func (f *fakeUltra) MaxSessionID(ctx context.Context, scope domain.Scope) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, l := range f.logs {
		if l.UserID == scope.UserID && l.DeviceID == scope.DeviceID && l.SessionID > max {
			max = l.SessionID
		}
	}
	return max, nil
}

func (f *fakeUltra) InsertTx(ctx context.Context, tx *sql.Tx, l *ultradomain.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeUltra) Delete(ctx context.Context, scope domain.Scope, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.logs {
		if l.ID == id && l.UserID == scope.UserID && l.DeviceID == scope.DeviceID {
			f.logs = append(f.logs[:i], f.logs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeIMU struct {
	mu   sync.Mutex
	logs []*imudomain.Log
}

func (f *fakeIMU) GetByID(ctx context.Context, scope domain.Scope, id string) (*imudomain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.ID == id && l.UserID == scope.UserID && l.DeviceID == scope.DeviceID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeIMU) ListByScope(ctx context.Context, scope domain.Scope) ([]*imudomain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*imudomain.Log
	for _, l := range f.logs {
		if l.UserID == scope.UserID && l.DeviceID == scope.DeviceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeIMU) ListByDate(ctx context.Context, scope domain.Scope, date string, sessionID int) ([]*imudomain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*imudomain.Log
	for _, l := range f.logs {
		if l.UserID != scope.UserID || l.DeviceID != scope.DeviceID || l.Date != date {
			continue
		}
		if sessionID > 0 && l.SessionID != sessionID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeIMU) Exists(ctx context.Context, scope domain.Scope, sessionID int, ts time.Time, heading float64, direction string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.UserID == scope.UserID && l.DeviceID == scope.DeviceID && l.SessionID == sessionID &&
			l.Timestamp.Equal(ts) && l.Heading == heading && l.Direction == direction {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIMU) ListDateSessions(ctx context.Context, scope domain.Scope) ([]imurepo.DateSessions, error) {
	return nil, nil
}

func (f *fakeIMU) MaxSessionID(ctx context.Context, scope domain.Scope) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, l := range f.logs {
		if l.UserID == scope.UserID && l.DeviceID == scope.DeviceID && l.SessionID > max {
			max = l.SessionID
		}
	}
	return max, nil
}

func (f *fakeIMU) InsertTx(ctx context.Context, tx *sql.Tx, l *imudomain.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeIMU) Delete(ctx context.Context, scope domain.Scope, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.logs {
		if l.ID == id && l.UserID == scope.UserID && l.DeviceID == scope.DeviceID {
			f.logs = append(f.logs[:i], f.logs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// memWriter commits batches straight into the fake repositories, or fails
// every commit when commitErr is set.
type memWriter struct {
	ultra     *fakeUltra
	imu       *fakeIMU
	commitErr error
}

func (w *memWriter) Begin() records.Batch { return &memBatch{w: w} }

type memBatch struct {
	w     *memWriter
	ultra []*ultradomain.Log
	imu   []*imudomain.Log
}

func (b *memBatch) AddUltrasonic(l *ultradomain.Log) { b.ultra = append(b.ultra, l) }
func (b *memBatch) AddIMU(l *imudomain.Log)          { b.imu = append(b.imu, l) }
func (b *memBatch) Len() int                         { return len(b.ultra) + len(b.imu) }

func (b *memBatch) Commit(ctx context.Context) error {
	if b.w.commitErr != nil {
		return b.w.commitErr
	}
	for _, l := range b.ultra {
		b.w.ultra.InsertTx(ctx, nil, l)
	}
	for _, l := range b.imu {
		b.w.imu.InsertTx(ctx, nil, l)
	}
	return nil
}

type env struct {
	counters *fakeCounters
	ultra    *fakeUltra
	imu      *fakeIMU
	buffer   *buffer.MemoryStore
	writer   *memWriter
	manager  *Manager
}

func newEnv() *env {
	counters := newFakeCounters()
	ultra := &fakeUltra{}
	imu := &fakeIMU{}
	buf := buffer.NewMemoryStore()
	writer := &memWriter{ultra: ultra, imu: imu}
	finalizer := NewFinalizer(buf, ultra, imu, writer)
	return &env{
		counters: counters,
		ultra:    ultra,
		imu:      imu,
		buffer:   buf,
		writer:   writer,
		manager:  NewManager(counters, ultra, imu, finalizer, nil),
	}
}

var testScope = domain.Scope{UserID: "u1", DeviceID: "d1"}

func TestManager_StartAssignsFirstSession(t *testing.T) {
	e := newEnv()
	id, resumed, err := e.manager.Start(context.Background(), testScope)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id != 1 || resumed {
		t.Errorf("Start: got id=%d resumed=%v, want 1 false", id, resumed)
	}
}

func TestManager_StartIsIdempotent(t *testing.T) {
	e := newEnv()
	first, _, err := e.manager.Start(context.Background(), testScope)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, resumed, err := e.manager.Start(context.Background(), testScope)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if second != first || !resumed {
		t.Errorf("second Start: got id=%d resumed=%v, want %d true", second, resumed, first)
	}
}

func TestManager_StartNeverReusesFinalizedID(t *testing.T) {
	e := newEnv()
	// The counter was reset by a previous stop but session 3 is already
	// finalized in the log store.
	e.ultra.logs = append(e.ultra.logs, &ultradomain.Log{
		ID: "x", UserID: "u1", DeviceID: "d1", SessionID: 3,
	})
	id, _, err := e.manager.Start(context.Background(), testScope)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id != 4 {
		t.Errorf("Start after finalized session 3: got id=%d, want 4", id)
	}
}

func TestManager_ScopesAreIndependent(t *testing.T) {
	e := newEnv()
	otherScope := domain.Scope{UserID: "u2", DeviceID: "d9"}
	if _, _, err := e.manager.Start(context.Background(), testScope); err != nil {
		t.Fatalf("Start: %v", err)
	}
	id, resumed, err := e.manager.Start(context.Background(), otherScope)
	if err != nil {
		t.Fatalf("Start other scope: %v", err)
	}
	if id != 1 || resumed {
		t.Errorf("other scope: got id=%d resumed=%v, want fresh session 1", id, resumed)
	}
}

func TestManager_StopWithoutSessionIsSoftNoop(t *testing.T) {
	e := newEnv()
	res, err := e.manager.Stop(context.Background(), testScope)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.Stopped {
		t.Error("Stop with no session: Stopped should be false")
	}
}

func TestManager_StopFinalizesAndResetsCounter(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	id, _, err := e.manager.Start(ctx, testScope)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	base := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	dist := 15.0
	appendRecord(t, e.buffer, id, base, &telemetrydomain.Metadata{
		Heading:   90,
		Distances: telemetrydomain.Distances{DistTotal: &dist},
	})
	appendRecord(t, e.buffer, id, base.Add(time.Second), nil)

	res, err := e.manager.Stop(ctx, testScope)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !res.Stopped || res.SessionID != id {
		t.Fatalf("Stop: got stopped=%v session=%d", res.Stopped, res.SessionID)
	}
	if res.Date != "2026-03-10" {
		t.Errorf("Stop date: got %q, want 2026-03-10", res.Date)
	}
	if got := res.Imported.Ultrasonic; got.TotalData != 2 || !got.Success || got.Duplication {
		t.Errorf("ultrasonic report: %+v", got)
	}
	if got := res.Imported.IMU; got.TotalData != 1 || !got.Success {
		t.Errorf("imu report: %+v", got)
	}
	if len(e.ultra.logs) != 2 || len(e.imu.logs) != 1 {
		t.Errorf("store rows: ultrasonic %d imu %d, want 2 and 1", len(e.ultra.logs), len(e.imu.logs))
	}

	cur, err := e.manager.Current(ctx, testScope)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != domain.Inactive {
		t.Errorf("counter after stop: got %d, want inactive", cur)
	}
	recs, _ := e.buffer.Session(ctx, testScope, id)
	if len(recs) != 0 {
		t.Errorf("buffer after stop: %d records left", len(recs))
	}
}

func TestManager_StopCommitFailureKeepsBufferAndResetsCounter(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	id, _, err := e.manager.Start(ctx, testScope)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	appendRecord(t, e.buffer, id, time.Now().UTC(), nil)
	e.writer.commitErr = errors.New("connection lost")

	res, err := e.manager.Stop(ctx, testScope)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !res.Stopped {
		t.Error("Stop after commit failure: Stopped should still be true")
	}
	if res.Imported.Ultrasonic.Success {
		t.Error("ultrasonic report: Success should be false after commit failure")
	}
	if res.Imported.Ultrasonic.Message != "connection lost" {
		t.Errorf("ultrasonic message: got %q", res.Imported.Ultrasonic.Message)
	}

	cur, _ := e.manager.Current(ctx, testScope)
	if cur != domain.Inactive {
		t.Errorf("counter after failed stop: got %d, want inactive", cur)
	}
	recs, _ := e.buffer.Session(ctx, testScope, id)
	if len(recs) != 1 {
		t.Errorf("buffer after failed stop: got %d records, want 1 kept for retry", len(recs))
	}
}

func appendRecord(t *testing.T, buf *buffer.MemoryStore, sessionID int, createdAt time.Time, meta *telemetrydomain.Metadata) {
	t.Helper()
	_, err := buf.Append(context.Background(), testScope, &telemetrydomain.Record{
		SessionID: sessionID,
		Timestamp: createdAt,
		Metadata:  meta,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("append record: %v", err)
	}
}
