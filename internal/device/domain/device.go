// Package domain holds the robot device entity.
package domain

import (
	"errors"
	"time"
)

// Device is one registered robot. A device is addressed by its unique human
// name from the controller and by id everywhere else. UserID is empty until
// the device is assigned to an operator.
type Device struct {
	ID        string
	Name      string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assigned reports whether the device has an owner.
func (d *Device) Assigned() bool {
	return d != nil && d.UserID != ""
}

// Validate validates the device for persistence.
func (d *Device) Validate() error {
	if d.Name == "" {
		return errors.New("device name is required")
	}
	return nil
}
