package domain

import "testing"

func ptr(f float64) *float64 { return &f }

func TestAlertLevelCm(t *testing.T) {
	cases := []struct {
		distance *float64
		want     AlertLevel
	}{
		{ptr(5), AlertHigh},
		{ptr(9.99), AlertHigh},
		{ptr(10), AlertMedium},
		{ptr(15), AlertMedium},
		{ptr(20), AlertMedium},
		{ptr(20.01), AlertSafe},
		{ptr(100), AlertSafe},
		{nil, AlertUnknown},
	}
	for _, tc := range cases {
		if got := AlertLevelCm(tc.distance); got != tc.want {
			t.Errorf("AlertLevelCm(%v) = %v, want %v", tc.distance, got, tc.want)
		}
	}
}

func TestAlertLevelMeters(t *testing.T) {
	cases := []struct {
		distance *float64
		want     AlertLevel
	}{
		{ptr(0.3), AlertHigh},
		{ptr(0.5), AlertMedium},
		{ptr(1.0), AlertMedium},
		{ptr(1.5), AlertSafe},
		{nil, AlertUnknown},
	}
	for _, tc := range cases {
		if got := AlertLevelMeters(tc.distance); got != tc.want {
			t.Errorf("AlertLevelMeters(%v) = %v, want %v", tc.distance, got, tc.want)
		}
	}
}

func TestAlertLevel_Obstacle(t *testing.T) {
	if !AlertHigh.Obstacle() || !AlertMedium.Obstacle() {
		t.Error("High and Medium should count as obstacles")
	}
	if AlertSafe.Obstacle() || AlertUnknown.Obstacle() {
		t.Error("Safe and Unknown should not count as obstacles")
	}
}
