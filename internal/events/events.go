// Package events publishes operational telemetry events (session starts,
// stops, finalization reports) onto a Kafka topic for the log-shipping worker.
package events

import (
	"context"
	"log"
	"strconv"
	"time"
)

// Event types published by the backend.
const (
	TypeSessionStarted   = "session.started"
	TypeSessionStopped   = "session.stopped"
	TypeSessionFinalized = "session.finalized"
	TypeIngestRejected   = "ingest.rejected"
)

// Event is one operational event. Fields map directly onto the Loki label set
// the worker ships, so keep them low-cardinality.
type Event struct {
	Type      string         `json:"type"`
	UserID    string         `json:"user_id"`
	DeviceID  string         `json:"device_id"`
	SessionID int            `json:"session_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Labels returns the Loki stream labels for the event. Empty fields are
// omitted so absent data never becomes a label value.
func (e Event) Labels() map[string]string {
	labels := make(map[string]string, 4)
	if e.Type != "" {
		labels["event_type"] = e.Type
	}
	if e.UserID != "" {
		labels["user_id"] = e.UserID
	}
	if e.DeviceID != "" {
		labels["device_id"] = e.DeviceID
	}
	if e.SessionID > 0 {
		labels["session_id"] = strconv.Itoa(e.SessionID)
	}
	return labels
}

// Emitter publishes events. Implementations must be safe for concurrent use.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
	Close() error
}

// EmitAsync publishes on a background goroutine so request handling never
// blocks on the broker. Failures are logged and dropped; events are
// best-effort by contract.
func EmitAsync(e Emitter, ev Event) {
	if e == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Emit(ctx, ev); err != nil {
			log.Printf("events: emit %s failed: %v", ev.Type, err)
		}
	}()
}

// NopEmitter discards every event. Used when no broker is configured.
type NopEmitter struct{}

func (NopEmitter) Emit(ctx context.Context, ev Event) error { return nil }
func (NopEmitter) Close() error                             { return nil }

var _ Emitter = NopEmitter{}
