// Package domain holds the durable IMU log and the compass direction table.
package domain

import (
	"math"
	"time"

	telemetrydomain "robogo/backend/internal/telemetry/domain"
)

// Log is one finalized IMU snapshot.
type Log struct {
	ID           string
	UserID       string
	DeviceID     string
	SessionID    int
	Timestamp    time.Time
	Heading      float64 // degrees, 0–360
	Direction    string  // 16-point compass name derived from Heading
	Pitch        float64
	Roll         float64
	Yaw          float64
	Acceleration telemetrydomain.Vector3
	Gyroscope    telemetrydomain.Vector3
	Magnetometer telemetrydomain.Vector3
	Velocity     float64
	Position     telemetrydomain.Position
	DistTotal    float64
	Date         string // YYYY-MM-DD in the report zone
	CreatedAt    time.Time
}

// compassPoints is the fixed 16-point table; index = round(heading/22.5) mod 16.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// DirectionFor maps a heading in degrees to its 16-point compass name.
// Headings outside 0–360 wrap through the modulo; 359° rounds back to "N".
func DirectionFor(heading float64) string {
	idx := int(math.Round(heading/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}
