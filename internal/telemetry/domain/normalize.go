package domain

import (
	"strconv"
	"strings"
	"time"
)

// Payload is the raw key-value form a sensor sample arrives as. Constrained
// firmware sends every field as a string; normalization owns all coercion.
type Payload map[string]string

// ParsePayload normalizes a raw sensor payload into a Record using
// coerce-or-zero semantics: every numeric field defaults to 0 when missing or
// unparseable, timestamp defaults to now, and sessionStatus defaults to true.
// The returned record has no session or owner set; the ingestor fills those.
func ParsePayload(p Payload, now time.Time) Record {
	rec := Record{
		Timestamp:     parseTimestamp(p["timestamp"], now),
		Obstacle:      parseBool(p["obstacle"]),
		RSSI:          int(parseFloat(p["rssi"])),
		SessionStatus: parseBoolDefault(p["sessionStatus"], true),
		SessionID:     int(parseFloat(p["sessionId"])),
		CreatedAt:     now,
	}
	if hasMetadataFields(p) {
		rec.Metadata = &Metadata{
			Heading:   parseFloat(p["heading"]),
			Direction: strings.TrimSpace(p["direction"]),
			Pitch:     parseFloat(p["pitch"]),
			Roll:      parseFloat(p["roll"]),
			Yaw:       parseFloat(p["yaw"]),
			Acceleration: Vector3{
				X: parseFloat(p["accelX"]),
				Y: parseFloat(p["accelY"]),
				Z: parseFloat(p["accelZ"]),
			},
			Gyroscope: Vector3{
				X: parseFloat(p["gyroX"]),
				Y: parseFloat(p["gyroY"]),
				Z: parseFloat(p["gyroZ"]),
			},
			Magnetometer: Vector3{
				X: parseFloat(p["magX"]),
				Y: parseFloat(p["magY"]),
				Z: parseFloat(p["magZ"]),
			},
			Velocity: parseFloat(p["velocity"]),
			Position: Position{
				X: parseFloat(p["posX"]),
				Y: parseFloat(p["posY"]),
			},
			Distances: Distances{
				DistTotal: parseFloatPtr(p["distTotal"]),
			},
		}
	}
	return rec
}

// metadataKeys are the payload fields whose presence means the sample carries
// a sensor snapshot. A bare keep-alive ping (timestamp + rssi only) buffers
// without metadata and produces no IMU log.
var metadataKeys = []string{
	"heading", "direction", "pitch", "roll", "yaw",
	"accelX", "accelY", "accelZ",
	"gyroX", "gyroY", "gyroZ",
	"magX", "magY", "magZ",
	"velocity", "posX", "posY", "distTotal",
}

func hasMetadataFields(p Payload) bool {
	for _, k := range metadataKeys {
		if _, ok := p[k]; ok {
			return true
		}
	}
	return false
}

// parseFloat coerces s to a float64, returning 0 when missing or unparseable.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseFloatPtr is parseFloat but distinguishes "absent/garbage" (nil) from
// a real zero reading.
func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return b
}

func parseBoolDefault(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}

// parseTimestamp accepts RFC 3339 or unix epoch (seconds or milliseconds);
// anything else falls back to the ingestion time.
func parseTimestamp(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Millisecond epochs are 13 digits for contemporary dates.
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	return now
}
