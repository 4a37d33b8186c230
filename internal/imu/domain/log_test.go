package domain

import "testing"

func TestDirectionFor(t *testing.T) {
	cases := []struct {
		heading float64
		want    string
	}{
		{0, "N"},
		{11, "N"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{337.5, "NNW"},
		{350, "N"},
		{359, "N"},
		{360, "N"},
		{-10, "N"},
	}
	for _, tc := range cases {
		if got := DirectionFor(tc.heading); got != tc.want {
			t.Errorf("DirectionFor(%v) = %q, want %q", tc.heading, got, tc.want)
		}
	}
}
