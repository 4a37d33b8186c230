package domain

import "time"

// Scope identifies the owner of a session counter: one robot operated by one user.
type Scope struct {
	UserID   string
	DeviceID string
}

// Inactive is the counter value meaning "no active session" for a scope.
// Session ids are positive; 0 (or anything below) is inactive.
const Inactive = 0

// Counter is the persisted active-session counter for a scope.
type Counter struct {
	Scope     Scope
	Current   int
	UpdatedAt time.Time
}

// Active reports whether the counter points at a running session.
func (c *Counter) Active() bool {
	return c != nil && c.Current > Inactive
}
