// Package localdate renders timestamps as dashboard calendar dates in the
// robot deployment's fixed UTC+7 offset. Reports and index grouping use this
// zone regardless of the server's local time.
package localdate

import "time"

// Zone is the fixed UTC+7 offset the dashboard groups dates in.
var Zone = time.FixedZone("UTC+7", 7*60*60)

// Format returns t's calendar date in the report zone as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.In(Zone).Format("2006-01-02")
}

// Label returns t's calendar date as the long-form label shown in the
// dashboard's date picker, e.g. "Monday, 02 January 2006".
func Label(t time.Time) string {
	return t.In(Zone).Format("Monday, 02 January 2006")
}

// Parse parses a YYYY-MM-DD date string in the report zone. The zero time and
// an error are returned for malformed input.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, Zone)
}
