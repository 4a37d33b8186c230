// Package domain holds the durable image record for uploaded camera frames.
package domain

import "time"

// Image is one stored camera frame plus the sensor snapshot taken with it.
type Image struct {
	ID        string
	UserID    string
	DeviceID  string
	SessionID int
	Filename  string
	Path      string
	URL       string
	Obstacle  bool
	Metadata  []byte // JSONB sensor snapshot at capture time
	CreatedAt time.Time
}
