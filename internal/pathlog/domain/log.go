// Package domain holds the durable path log written by the direct
// odometry ingestion endpoint (not via the session buffer).
package domain

import "time"

// Status is the robot's motion state at sample time.
type Status string

const (
	StatusMoving  Status = "Moving"
	StatusStopped Status = "Stopped"
)

// Log is one odometry sample: planar position, speed, and heading.
type Log struct {
	ID        string
	UserID    string
	DeviceID  string
	SessionID int
	X         float64
	Y         float64
	Speed     float64
	Heading   float64
	Status    Status
	CreatedAt time.Time
}

// StatusFor derives the motion state from speed; anything measurably moving
// counts as Moving.
func StatusFor(speed float64) Status {
	if speed > 0 {
		return StatusMoving
	}
	return StatusStopped
}
