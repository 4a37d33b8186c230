package buffer

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	sessiondomain "robogo/backend/internal/session/domain"
	"robogo/backend/internal/telemetry/domain"
)

// MemoryStore is an in-memory Store implementation, used in tests and as a
// stand-in when no database is configured.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[bufferKey][]*domain.Record
}

type bufferKey struct {
	userID    string
	deviceID  string
	sessionID int
}

// NewMemoryStore returns a new in-memory buffer store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[bufferKey][]*domain.Record)}
}

// Append writes the record under a generated UUID key and returns the key.
func (s *MemoryStore) Append(ctx context.Context, scope sessiondomain.Scope, rec *domain.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.Key = uuid.New().String()
	cp.UserID = scope.UserID
	cp.DeviceID = scope.DeviceID
	k := bufferKey{scope.UserID, scope.DeviceID, rec.SessionID}
	s.m[k] = append(s.m[k], &cp)
	return cp.Key, nil
}

// Session returns every buffered record for the session, oldest first.
func (s *MemoryStore) Session(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.m[bufferKey{scope.UserID, scope.DeviceID, sessionID}]
	if len(recs) == 0 {
		return nil, nil
	}
	out := make([]*domain.Record, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Last returns the most recently appended record for the session, or nil.
func (s *MemoryStore) Last(ctx context.Context, scope sessiondomain.Scope, sessionID int) (*domain.Record, error) {
	recs, err := s.Session(ctx, scope, sessionID)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[len(recs)-1], nil
}

// Remove deletes all buffered records for the session.
func (s *MemoryStore) Remove(ctx context.Context, scope sessiondomain.Scope, sessionID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, bufferKey{scope.UserID, scope.DeviceID, sessionID})
	return nil
}

var _ Store = (*MemoryStore)(nil)
