package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	imagedomain "robogo/backend/internal/image/domain"
	sessiondomain "robogo/backend/internal/session/domain"
	"robogo/backend/internal/telemetry/buffer"
	"robogo/backend/internal/telemetry/domain"
)

type fakeCounters struct {
	mu sync.Mutex
	m  map[sessiondomain.Scope]int
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{m: make(map[sessiondomain.Scope]int)}
}

func (f *fakeCounters) Get(ctx context.Context, scope sessiondomain.Scope) (*sessiondomain.Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[scope]
	if !ok {
		return nil, nil
	}
	return &sessiondomain.Counter{Scope: scope, Current: v}, nil
}

func (f *fakeCounters) Set(ctx context.Context, scope sessiondomain.Scope, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[scope] = value
	return nil
}

func (f *fakeCounters) AdvanceTo(ctx context.Context, scope sessiondomain.Scope, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value > f.m[scope] {
		f.m[scope] = value
	}
	return nil
}

type fakeBlobs struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{saved: make(map[string][]byte)} }

func (f *fakeBlobs) Save(ctx context.Context, path string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[path] = data
	return nil
}

func (f *fakeBlobs) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "https://blobs.test/" + path, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.saved[path]; !ok {
		return errors.New("not found")
	}
	delete(f.saved, path)
	return nil
}

func (f *fakeBlobs) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.saved[path]
	return ok, nil
}

type fakeImages struct {
	mu      sync.Mutex
	records []*imagedomain.Image
}

func (f *fakeImages) Create(ctx context.Context, img *imagedomain.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, img)
	return nil
}

func (f *fakeImages) GetByID(ctx context.Context, scope sessiondomain.Scope, id string) (*imagedomain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, img := range f.records {
		if img.ID == id && img.UserID == scope.UserID && img.DeviceID == scope.DeviceID {
			return img, nil
		}
	}
	return nil, nil
}

func (f *fakeImages) ListByScope(ctx context.Context, scope sessiondomain.Scope) ([]*imagedomain.Image, error) {
	return nil, nil
}

func (f *fakeImages) ListBySession(ctx context.Context, scope sessiondomain.Scope, sessionID int) ([]*imagedomain.Image, error) {
	return nil, nil
}

func (f *fakeImages) Delete(ctx context.Context, scope sessiondomain.Scope, id string) (bool, error) {
	return false, nil
}

var testScope = sessiondomain.Scope{UserID: "u1", DeviceID: "d1"}

func newTestIngestor() (*Ingestor, *fakeCounters, *buffer.MemoryStore, *fakeBlobs, *fakeImages) {
	counters := newFakeCounters()
	buf := buffer.NewMemoryStore()
	blobs := newFakeBlobs()
	images := &fakeImages{}
	return NewIngestor(counters, buf, blobs, images, nil), counters, buf, blobs, images
}

func TestIngest_RejectsWithoutActiveSession(t *testing.T) {
	ing, _, buf, _, _ := newTestIngestor()
	_, err := ing.Ingest(context.Background(), testScope, domain.Payload{"rssi": "-40"}, nil)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Ingest without session: got %v, want ErrNoActiveSession", err)
	}
	recs, _ := buf.Session(context.Background(), testScope, 1)
	if len(recs) != 0 {
		t.Error("rejected sample was buffered")
	}
}

func TestIngest_BuffersUnderActiveSession(t *testing.T) {
	ing, counters, buf, _, _ := newTestIngestor()
	ctx := context.Background()
	counters.Set(ctx, testScope, 2)

	rec, err := ing.Ingest(ctx, testScope, domain.Payload{
		"rssi":      "-55",
		"obstacle":  "true",
		"heading":   "91.5",
		"distTotal": "12.0",
	}, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.SessionID != 2 {
		t.Errorf("session id: got %d, want 2", rec.SessionID)
	}
	if rec.Key == "" {
		t.Error("buffer key not set")
	}
	if rec.RSSI != -55 || !rec.Obstacle {
		t.Errorf("coerced fields: rssi=%d obstacle=%v", rec.RSSI, rec.Obstacle)
	}
	if rec.Metadata == nil || rec.Metadata.Heading != 91.5 {
		t.Errorf("metadata: %+v", rec.Metadata)
	}

	recs, _ := buf.Session(ctx, testScope, 2)
	if len(recs) != 1 {
		t.Fatalf("buffered records: %d", len(recs))
	}
}

func TestIngest_PayloadRaisesCounter(t *testing.T) {
	ing, counters, _, _, _ := newTestIngestor()
	ctx := context.Background()
	counters.Set(ctx, testScope, 2)

	rec, err := ing.Ingest(ctx, testScope, domain.Payload{"sessionId": "5"}, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.SessionID != 5 {
		t.Errorf("session id: got %d, want raised to 5", rec.SessionID)
	}
	c, _ := counters.Get(ctx, testScope)
	if c.Current != 5 {
		t.Errorf("counter: got %d, want 5", c.Current)
	}
}

func TestIngest_StalePayloadIDCannotLowerCounter(t *testing.T) {
	ing, counters, _, _, _ := newTestIngestor()
	ctx := context.Background()
	counters.Set(ctx, testScope, 7)

	rec, err := ing.Ingest(ctx, testScope, domain.Payload{"sessionId": "3"}, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.SessionID != 7 {
		t.Errorf("session id: got %d, want current 7", rec.SessionID)
	}
	c, _ := counters.Get(ctx, testScope)
	if c.Current != 7 {
		t.Errorf("counter rolled back: %d", c.Current)
	}
}

func TestIngest_SavesImage(t *testing.T) {
	ing, counters, _, blobs, images := newTestIngestor()
	ctx := context.Background()
	counters.Set(ctx, testScope, 1)

	rec, err := ing.Ingest(ctx, testScope, domain.Payload{"obstacle": "true"}, &UploadedImage{
		Data:        []byte{0x89, 0x50},
		ContentType: "image/png",
		TakenWith:   "front-cam",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Image == nil {
		t.Fatal("record has no image ref")
	}
	if !strings.HasSuffix(rec.Image.Filename, ".png") {
		t.Errorf("filename: %q, want .png suffix", rec.Image.Filename)
	}
	wantPrefix := "u1/d1/"
	if !strings.HasPrefix(rec.Image.Path, wantPrefix) {
		t.Errorf("path: %q, want prefix %q", rec.Image.Path, wantPrefix)
	}
	if rec.Image.TakenWith != "front-cam" {
		t.Errorf("takenWith: %q", rec.Image.TakenWith)
	}
	if _, ok := blobs.saved[rec.Image.Path]; !ok {
		t.Error("blob not saved")
	}
	if len(images.records) != 1 {
		t.Fatalf("image records: %d", len(images.records))
	}
	if !images.records[0].Obstacle {
		t.Error("image record missing obstacle flag")
	}
}

func TestLast_EmptySessionReturnsNil(t *testing.T) {
	ing, counters, _, _, _ := newTestIngestor()
	ctx := context.Background()
	counters.Set(ctx, testScope, 1)

	rec, err := ing.Last(ctx, testScope)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if rec != nil {
		t.Errorf("Last on empty session: %+v", rec)
	}
}

func TestRealtime_RequiresActiveSession(t *testing.T) {
	ing, _, _, _, _ := newTestIngestor()
	if _, err := ing.Realtime(context.Background(), testScope); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Realtime without session: got %v", err)
	}
}
