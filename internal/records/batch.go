// Package records provides the batched atomic write used by session
// finalization: every derived log for a session is queued into one Batch and
// committed in a single transaction.
package records

import (
	"context"
	"database/sql"

	imudomain "robogo/backend/internal/imu/domain"
	ultradomain "robogo/backend/internal/ultrasonic/domain"
)

// Batch collects derived logs and commits them atomically. Add methods never
// fail; all store work happens in Commit.
type Batch interface {
	AddUltrasonic(l *ultradomain.Log)
	AddIMU(l *imudomain.Log)
	// Len returns the number of queued records.
	Len() int
	// Commit writes every queued record in one transaction. On error nothing
	// is persisted.
	Commit(ctx context.Context) error
}

// Writer creates batches.
type Writer interface {
	Begin() Batch
}

type ultrasonicInserter interface {
	InsertTx(ctx context.Context, tx *sql.Tx, l *ultradomain.Log) error
}

type imuInserter interface {
	InsertTx(ctx context.Context, tx *sql.Tx, l *imudomain.Log) error
}

// PostgresWriter is a Writer committing through the two log repositories
// inside one database transaction.
type PostgresWriter struct {
	db    *sql.DB
	ultra ultrasonicInserter
	imu   imuInserter
}

// NewPostgresWriter returns a Writer over the given db and repositories.
func NewPostgresWriter(db *sql.DB, ultra ultrasonicInserter, imu imuInserter) *PostgresWriter {
	return &PostgresWriter{db: db, ultra: ultra, imu: imu}
}

// Begin returns an empty batch.
func (w *PostgresWriter) Begin() Batch {
	return &postgresBatch{w: w}
}

type postgresBatch struct {
	w     *PostgresWriter
	ultra []*ultradomain.Log
	imu   []*imudomain.Log
}

func (b *postgresBatch) AddUltrasonic(l *ultradomain.Log) { b.ultra = append(b.ultra, l) }
func (b *postgresBatch) AddIMU(l *imudomain.Log)          { b.imu = append(b.imu, l) }
func (b *postgresBatch) Len() int                         { return len(b.ultra) + len(b.imu) }

func (b *postgresBatch) Commit(ctx context.Context) error {
	if b.Len() == 0 {
		return nil
	}
	tx, err := b.w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, l := range b.ultra {
		if err := b.w.ultra.InsertTx(ctx, tx, l); err != nil {
			return err
		}
	}
	for _, l := range b.imu {
		if err := b.w.imu.InsertTx(ctx, tx, l); err != nil {
			return err
		}
	}
	return tx.Commit()
}

var _ Writer = (*PostgresWriter)(nil)
