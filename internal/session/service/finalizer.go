package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	imudomain "robogo/backend/internal/imu/domain"
	imurepo "robogo/backend/internal/imu/repository"
	"robogo/backend/internal/localdate"
	"robogo/backend/internal/records"
	sessiondomain "robogo/backend/internal/session/domain"
	"robogo/backend/internal/telemetry/buffer"
	telemetrydomain "robogo/backend/internal/telemetry/domain"
	ultradomain "robogo/backend/internal/ultrasonic/domain"
	ultrarepo "robogo/backend/internal/ultrasonic/repository"
)

// TableReport summarizes the import of one log table. Duplication is true
// when the table had data but every row was already imported, which
// distinguishes a re-run from an empty session.
type TableReport struct {
	TotalData   int    `json:"totalData"`
	Success     bool   `json:"success"`
	Duplication bool   `json:"duplication"`
	Message     string `json:"message"`
}

// ImportReport is the per-table breakdown returned by a session stop.
type ImportReport struct {
	Ultrasonic TableReport `json:"ultrasonic_logs"`
	IMU        TableReport `json:"imu_logs"`
}

// ultraKey and imuKey mirror the natural uniqueness keys of the two log
// tables. The batch commits in one transaction, so the store lookup cannot
// see rows queued earlier in the same finalization; these keys dedup those.
type ultraKey struct {
	ts       int64
	distance float64
	imageID  string
}

type imuKey struct {
	ts        int64
	heading   float64
	direction string
}

// tableCount tracks one table's progress while the batch is being built.
type tableCount struct {
	total    int
	imported int
	dups     int
}

func (c tableCount) report(committed bool, commitErr error) TableReport {
	r := TableReport{
		TotalData:   c.total,
		Success:     committed,
		Duplication: c.total > 0 && c.imported == 0,
	}
	switch {
	case commitErr != nil:
		r.Message = commitErr.Error()
	case c.total == 0:
		r.Message = "No data to import"
	case c.imported == 0:
		r.Message = "All data already imported"
	case c.dups > 0:
		r.Message = fmt.Sprintf("Imported %d new records, skipped %d duplicates", c.imported, c.dups)
	default:
		r.Message = fmt.Sprintf("Imported %d records", c.imported)
	}
	return r
}

// Finalizer turns a session's buffered telemetry into durable ultrasonic and
// IMU logs in a single atomic batch.
type Finalizer struct {
	buffer buffer.Store
	ultra  ultrarepo.Repository
	imu    imurepo.Repository
	writer records.Writer
	now    func() time.Time
}

// NewFinalizer creates a finalizer over the buffer, the two dedup
// repositories, and the batch writer.
func NewFinalizer(buf buffer.Store, ultra ultrarepo.Repository, imu imurepo.Repository, writer records.Writer) *Finalizer {
	return &Finalizer{
		buffer: buf,
		ultra:  ultra,
		imu:    imu,
		writer: writer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Finalize reads the session's buffer, derives one ultrasonic log per sample
// and one IMU log per sample with sensor metadata, skips rows the durable
// stores already hold, and commits the remainder in one batch.
//
// A failed batch commit does not surface as an error: the report comes back
// with success=false and the commit error as the message, the buffer is kept
// for a retry, and the caller still completes the session transition. An
// error return means the buffer itself could not be read or cleared.
func (f *Finalizer) Finalize(ctx context.Context, scope sessiondomain.Scope, sessionID int) (*ImportReport, string, error) {
	now := f.now()
	date := localdate.Format(now)

	recs, err := f.buffer.Session(ctx, scope, sessionID)
	if err != nil {
		return nil, date, fmt.Errorf("finalize: read buffer: %w", err)
	}
	if len(recs) > 0 {
		// The report groups under the day the session's first sample arrived.
		date = localdate.Format(recs[0].CreatedAt)
	}

	batch := f.writer.Begin()
	var ultraCount, imuCount tableCount
	seenUltra := make(map[ultraKey]struct{}, len(recs))
	seenIMU := make(map[imuKey]struct{}, len(recs))
	for _, rec := range recs {
		if err := f.queueUltrasonic(ctx, batch, scope, sessionID, rec, now, &ultraCount, seenUltra); err != nil {
			return nil, date, err
		}
		if !rec.HasMetadata() {
			continue
		}
		if err := f.queueIMU(ctx, batch, scope, sessionID, rec, now, &imuCount, seenIMU); err != nil {
			return nil, date, err
		}
	}

	commitErr := batch.Commit(ctx)
	if commitErr != nil {
		log.Printf("session: finalize %d for %s/%s: batch commit failed, buffer kept: %v",
			sessionID, scope.UserID, scope.DeviceID, commitErr)
	}

	report := &ImportReport{
		Ultrasonic: ultraCount.report(commitErr == nil, commitErr),
		IMU:        imuCount.report(commitErr == nil, commitErr),
	}
	if commitErr != nil {
		return report, date, nil
	}

	if len(recs) > 0 {
		if err := f.buffer.Remove(ctx, scope, sessionID); err != nil {
			// Data is durable already; a leftover buffer only costs a dedup
			// pass on the next import.
			return report, date, fmt.Errorf("finalize: clear buffer: %w", err)
		}
	}
	return report, date, nil
}

func (f *Finalizer) queueUltrasonic(ctx context.Context, batch records.Batch, scope sessiondomain.Scope, sessionID int, rec *telemetrydomain.Record, now time.Time, count *tableCount, seen map[ultraKey]struct{}) error {
	count.total++

	var distPtr *float64
	if rec.HasMetadata() {
		distPtr = rec.Metadata.Distances.DistTotal
	}
	var distance float64
	if distPtr != nil {
		distance = *distPtr
	}
	imageID := imageIDFor(rec.Image)

	key := ultraKey{ts: rec.Timestamp.UnixNano(), distance: distance}
	if imageID != nil {
		key.imageID = *imageID
	}
	if _, queued := seen[key]; queued {
		count.dups++
		return nil
	}
	dup, err := f.ultra.Exists(ctx, scope, sessionID, rec.Timestamp, distance, imageID)
	if err != nil {
		return fmt.Errorf("finalize: ultrasonic dedup probe: %w", err)
	}
	if dup {
		count.dups++
		return nil
	}
	seen[key] = struct{}{}

	batch.AddUltrasonic(&ultradomain.Log{
		ID:        uuid.NewString(),
		UserID:    scope.UserID,
		DeviceID:  scope.DeviceID,
		SessionID: sessionID,
		Distance:  distance,
		Alert:     ultradomain.AlertLevelCm(distPtr),
		ImageID:   imageID,
		Timestamp: rec.Timestamp,
		// Grouped by arrival day, not the device clock, which may be skewed.
		Date:      localdate.Format(rec.CreatedAt),
		CreatedAt: now,
	})
	count.imported++
	return nil
}

func (f *Finalizer) queueIMU(ctx context.Context, batch records.Batch, scope sessiondomain.Scope, sessionID int, rec *telemetrydomain.Record, now time.Time, count *tableCount, seen map[imuKey]struct{}) error {
	count.total++

	meta := rec.Metadata
	heading := meta.Heading
	direction := meta.Direction
	if direction == "" {
		direction = imudomain.DirectionFor(heading)
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = rec.CreatedAt
	}

	key := imuKey{ts: ts.UnixNano(), heading: heading, direction: direction}
	if _, queued := seen[key]; queued {
		count.dups++
		return nil
	}
	dup, err := f.imu.Exists(ctx, scope, sessionID, ts, heading, direction)
	if err != nil {
		return fmt.Errorf("finalize: imu dedup probe: %w", err)
	}
	if dup {
		count.dups++
		return nil
	}
	seen[key] = struct{}{}

	var distTotal float64
	if meta.Distances.DistTotal != nil {
		distTotal = *meta.Distances.DistTotal
	}
	batch.AddIMU(&imudomain.Log{
		ID:           uuid.NewString(),
		UserID:       scope.UserID,
		DeviceID:     scope.DeviceID,
		SessionID:    sessionID,
		Timestamp:    ts,
		Heading:      heading,
		Direction:    direction,
		Pitch:        meta.Pitch,
		Roll:         meta.Roll,
		Yaw:          meta.Yaw,
		Acceleration: meta.Acceleration,
		Gyroscope:    meta.Gyroscope,
		Magnetometer: meta.Magnetometer,
		Velocity:     meta.Velocity,
		Position:     meta.Position,
		DistTotal:    distTotal,
		Date:         localdate.Format(ts),
		CreatedAt:    now,
	})
	count.imported++
	return nil
}

// imageIDFor recovers the image record id from a buffered image reference.
// Stored filenames are "<id>.png".
func imageIDFor(img *telemetrydomain.ImageRef) *string {
	if img == nil || img.Filename == "" {
		return nil
	}
	id := strings.TrimSuffix(img.Filename, ".png")
	return &id
}
