// Package service implements realtime telemetry ingestion: payload
// normalization, active-session gating, and appending to the session buffer.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"robogo/backend/internal/events"
	imagedomain "robogo/backend/internal/image/domain"
	imagerepo "robogo/backend/internal/image/repository"
	sessiondomain "robogo/backend/internal/session/domain"
	sessionrepo "robogo/backend/internal/session/repository"
	"robogo/backend/internal/storage"
	"robogo/backend/internal/telemetry/buffer"
	"robogo/backend/internal/telemetry/domain"
)

// ErrNoActiveSession is returned when telemetry arrives for a scope with no
// running session. Samples are never buffered outside a session.
var ErrNoActiveSession = errors.New("no active session")

// signedURLExpiry is the validity requested for image URLs handed back to the
// dashboard. The filesystem store ignores it; object stores honor it.
const signedURLExpiry = 24 * time.Hour

// UploadedImage is a camera frame attached to a telemetry sample.
type UploadedImage struct {
	Data        []byte
	ContentType string
	TakenWith   string
}

// Ingestor accepts raw sensor payloads and appends them to the scope's
// session buffer.
type Ingestor struct {
	counters sessionrepo.Repository
	buffer   buffer.Store
	blobs    storage.Store
	images   imagerepo.Repository
	emitter  events.Emitter
	now      func() time.Time
}

// NewIngestor creates a telemetry ingestor. blobs and images may be nil when
// image uploads are disabled; emitter may be nil.
func NewIngestor(counters sessionrepo.Repository, buf buffer.Store, blobs storage.Store, images imagerepo.Repository, emitter events.Emitter) *Ingestor {
	return &Ingestor{
		counters: counters,
		buffer:   buf,
		blobs:    blobs,
		images:   images,
		emitter:  emitter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ingest normalizes the payload and appends it to the running session's
// buffer. The effective session id is the counter's value, advanced first if
// the payload claims a higher id (a controller that started a session the
// counter write lost). Returns ErrNoActiveSession when the scope has no
// running session.
func (i *Ingestor) Ingest(ctx context.Context, scope sessiondomain.Scope, payload domain.Payload, img *UploadedImage) (*domain.Record, error) {
	now := i.now()
	rec := domain.ParsePayload(payload, now)

	sessionID, err := i.effectiveSession(ctx, scope, rec.SessionID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			events.EmitAsync(i.emitter, events.Event{
				Type:      events.TypeIngestRejected,
				UserID:    scope.UserID,
				DeviceID:  scope.DeviceID,
				Timestamp: now,
			})
		}
		return nil, err
	}

	rec.UserID = scope.UserID
	rec.DeviceID = scope.DeviceID
	rec.SessionID = sessionID

	if img != nil && len(img.Data) > 0 {
		ref, err := i.saveImage(ctx, scope, sessionID, &rec, img)
		if err != nil {
			return nil, fmt.Errorf("telemetry: save image: %w", err)
		}
		rec.Image = ref
	}

	key, err := i.buffer.Append(ctx, scope, &rec)
	if err != nil {
		return nil, fmt.Errorf("telemetry: append: %w", err)
	}
	rec.Key = key
	return &rec, nil
}

// effectiveSession resolves the session a sample belongs to. A payload id
// above the stored counter raises the counter (raise-only, so a stale lower
// id can never roll an active session back).
func (i *Ingestor) effectiveSession(ctx context.Context, scope sessiondomain.Scope, payloadID int) (int, error) {
	c, err := i.counters.Get(ctx, scope)
	if err != nil {
		return 0, err
	}
	current := sessiondomain.Inactive
	if c != nil {
		current = c.Current
	}
	if payloadID > current {
		if err := i.counters.AdvanceTo(ctx, scope, payloadID); err != nil {
			return 0, err
		}
		current = payloadID
	}
	if current <= sessiondomain.Inactive {
		return 0, ErrNoActiveSession
	}
	return current, nil
}

func (i *Ingestor) saveImage(ctx context.Context, scope sessiondomain.Scope, sessionID int, rec *domain.Record, img *UploadedImage) (*domain.ImageRef, error) {
	if i.blobs == nil || i.images == nil {
		return nil, errors.New("image uploads are not configured")
	}

	id := uuid.NewString()
	filename := storage.Filename(id)
	path := scope.UserID + "/" + scope.DeviceID + "/" + filename

	if err := i.blobs.Save(ctx, path, img.Data, img.ContentType); err != nil {
		return nil, err
	}
	url, err := i.blobs.SignedURL(ctx, path, signedURLExpiry)
	if err != nil {
		return nil, err
	}

	meta := []byte("{}")
	if rec.Metadata != nil {
		if b, err := json.Marshal(rec.Metadata); err == nil {
			meta = b
		}
	}
	err = i.images.Create(ctx, &imagedomain.Image{
		ID:        id,
		UserID:    scope.UserID,
		DeviceID:  scope.DeviceID,
		SessionID: sessionID,
		Filename:  filename,
		Path:      path,
		URL:       url,
		Obstacle:  rec.Obstacle,
		Metadata:  meta,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	return &domain.ImageRef{
		Filename:  filename,
		Path:      path,
		URL:       url,
		TakenWith: img.TakenWith,
	}, nil
}

// Realtime returns the running session's buffered records in append order.
func (i *Ingestor) Realtime(ctx context.Context, scope sessiondomain.Scope) ([]*domain.Record, error) {
	sessionID, err := i.activeSession(ctx, scope)
	if err != nil {
		return nil, err
	}
	return i.buffer.Session(ctx, scope, sessionID)
}

// Last returns the most recent buffered record of the running session, or nil
// when the session has no samples yet.
func (i *Ingestor) Last(ctx context.Context, scope sessiondomain.Scope) (*domain.Record, error) {
	sessionID, err := i.activeSession(ctx, scope)
	if err != nil {
		return nil, err
	}
	return i.buffer.Last(ctx, scope, sessionID)
}

func (i *Ingestor) activeSession(ctx context.Context, scope sessiondomain.Scope) (int, error) {
	c, err := i.counters.Get(ctx, scope)
	if err != nil {
		return 0, err
	}
	if !c.Active() {
		return 0, ErrNoActiveSession
	}
	return c.Current, nil
}
