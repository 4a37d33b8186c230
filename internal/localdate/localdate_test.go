package localdate

import (
	"testing"
	"time"
)

func TestFormat_UsesReportZone(t *testing.T) {
	// 18:30 UTC is 01:30 the next day in UTC+7.
	ts := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	if got := Format(ts); got != "2026-03-02" {
		t.Errorf("Format: got %q, want 2026-03-02", got)
	}
	ts = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := Format(ts); got != "2026-03-01" {
		t.Errorf("Format: got %q, want 2026-03-01", got)
	}
}

func TestLabel(t *testing.T) {
	ts := time.Date(2026, 3, 2, 1, 0, 0, 0, Zone)
	if got := Label(ts); got != "Monday, 02 March 2026" {
		t.Errorf("Label: got %q", got)
	}
}

func TestParse_RoundTrips(t *testing.T) {
	ts, err := Parse("2026-03-02")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := Format(ts); got != "2026-03-02" {
		t.Errorf("round trip: got %q", got)
	}
	if _, err := Parse("02/03/2026"); err == nil {
		t.Error("malformed date accepted")
	}
}
