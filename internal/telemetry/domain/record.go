// Package domain holds the buffered telemetry record types and the payload
// normalization rules for sensor samples arriving from robot firmware.
package domain

import "time"

// Vector3 is a three-axis sensor reading (acceleration, gyroscope, magnetometer).
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Position is the robot's planar position estimate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distances holds the ultrasonic distance readings. DistTotal is nil when the
// sample carried no parseable distance; finalization maps that to an
// "Unknown" alert level instead of a zero reading.
type Distances struct {
	DistTotal *float64 `json:"distTotal"`
}

// Metadata is the nested sensor snapshot inside a buffered record.
type Metadata struct {
	Heading      float64   `json:"heading"`
	Direction    string    `json:"direction"`
	Pitch        float64   `json:"pitch"`
	Roll         float64   `json:"roll"`
	Yaw          float64   `json:"yaw"`
	Acceleration Vector3   `json:"acceleration"`
	Gyroscope    Vector3   `json:"gyroscope"`
	Magnetometer Vector3   `json:"magnetometer"`
	Velocity     float64   `json:"velocity"`
	Position     Position  `json:"position"`
	Distances    Distances `json:"distances"`
}

// ImageRef links a buffered record to an uploaded camera frame.
type ImageRef struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	URL       string `json:"imageUrl"`
	TakenWith string `json:"takenWith"`
}

// Record is one buffered sensor sample. Immutable once appended; owned by its
// session and moved to the durable stores by finalization.
type Record struct {
	Key           string    `json:"key,omitempty"` // generated buffer key
	UserID        string    `json:"-"`
	DeviceID      string    `json:"-"`
	SessionID     int       `json:"sessionId"`
	Timestamp     time.Time `json:"timestamp"`
	Obstacle      bool      `json:"obstacle"`
	RSSI          int       `json:"rssi"`
	SessionStatus bool      `json:"sessionStatus"`
	Metadata      *Metadata `json:"metadata,omitempty"` // nil when the sample carried none
	Image         *ImageRef `json:"image,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasMetadata reports whether the record carries a sensor snapshot. Only
// records with metadata produce an IMU log during finalization.
func (r *Record) HasMetadata() bool {
	return r.Metadata != nil
}
