// Package domain holds the operator account entity.
package domain

import (
	"errors"
	"time"
)

// User is an operator account. The password hash lives on the user row; there
// is no separate identity-provider table because local password login is the
// only method.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
