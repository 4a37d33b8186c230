// Package domain holds the durable ultrasonic log and its alert-level rules.
package domain

import "time"

// AlertLevel buckets a distance reading for the dashboard.
type AlertLevel string

const (
	AlertHigh    AlertLevel = "High"
	AlertMedium  AlertLevel = "Medium"
	AlertSafe    AlertLevel = "Safe"
	AlertUnknown AlertLevel = "Unknown"
)

// Log is one finalized ultrasonic reading.
type Log struct {
	ID        string
	UserID    string
	DeviceID  string
	SessionID int
	Distance  float64
	Alert     AlertLevel
	ImageID   *string // nil when the sample had no camera frame
	Timestamp time.Time
	Date      string // YYYY-MM-DD in the report zone, for index grouping
	CreatedAt time.Time
}

// AlertLevelCm buckets a centimeter-scale distance: below 10 cm is High,
// 10–20 cm is Medium, beyond is Safe. nil (no reading) is Unknown. This is
// the scale the session finalizer uses.
func AlertLevelCm(distance *float64) AlertLevel {
	if distance == nil {
		return AlertUnknown
	}
	d := *distance
	switch {
	case d < 10:
		return AlertHigh
	case d <= 20:
		return AlertMedium
	default:
		return AlertSafe
	}
}

// AlertLevelMeters buckets a meter-scale distance: below 0.5 m is High, up to
// 1.0 m is Medium, beyond is Safe. nil is Unknown. The direct path-log
// ingestion endpoint uses this scale; the two scales are deliberately not
// unified because existing dashboards read both.
func AlertLevelMeters(distance *float64) AlertLevel {
	if distance == nil {
		return AlertUnknown
	}
	d := *distance
	switch {
	case d < 0.5:
		return AlertHigh
	case d <= 1.0:
		return AlertMedium
	default:
		return AlertSafe
	}
}

// Obstacle reports whether the alert level counts as an obstacle in summaries.
func (a AlertLevel) Obstacle() bool {
	return a == AlertHigh || a == AlertMedium
}
