package tui

import (
	"testing"

	"endurance-coach/internal/config"
)

func TestUnitsFormatDistance(t *testing.T) {
	meters := 42195.0
	tests := []struct {
		unit string
		in   *float64
		want string
	}{
		{"km", &meters, "42.2 km"},
		{"mi", &meters, "26.2 mi"},
		{"km", nil, "-"},
	}
	for _, tt := range tests {
		u := NewUnits(config.DisplayConfig{DistanceUnit: tt.unit})
		if got := u.FormatDistance(tt.in); got != tt.want {
			t.Errorf("FormatDistance(%s) = %q, want %q", tt.unit, got, tt.want)
		}
	}
}

func TestUnitsFormatElevation(t *testing.T) {
	climb := 1500.0
	if got := NewUnits(config.DisplayConfig{DistanceUnit: "km"}).FormatElevation(&climb); got != "1,500 m" {
		t.Errorf("metric elevation = %q", got)
	}
	if got := NewUnits(config.DisplayConfig{DistanceUnit: "mi"}).FormatElevation(&climb); got != "4,921 ft" {
		t.Errorf("imperial elevation = %q", got)
	}
}

func TestScrollOffset(t *testing.T) {
	tests := []struct {
		cursor, offset, size, want int
	}{
		{0, 0, 10, 0},
		{9, 0, 10, 0},
		{10, 0, 10, 1},
		{3, 5, 10, 3},
		{24, 10, 10, 15},
	}
	for _, tt := range tests {
		if got := scrollOffset(tt.cursor, tt.offset, tt.size); got != tt.want {
			t.Errorf("scrollOffset(%d, %d, %d) = %d, want %d", tt.cursor, tt.offset, tt.size, got, tt.want)
		}
	}
}

func TestOffsetText(t *testing.T) {
	tests := map[int]string{
		-2: "done 2 days early",
		-1: "done 1 day early",
		1:  "done 1 day late",
	}
	for days, want := range tests {
		if got := offsetText(days); got != want {
			t.Errorf("offsetText(%d) = %q, want %q", days, got, want)
		}
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("Short", 10); got != "Short" {
		t.Errorf("truncateName kept = %q", got)
	}
	if got := truncateName("Sweet Spot Over-Unders", 10); got != "Sweet S..." {
		t.Errorf("truncateName cut = %q", got)
	}
}

func TestRaceTitle(t *testing.T) {
	if got := raceTitle("", 0); got != "Race Readiness (race day)" {
		t.Errorf("raceTitle = %q", got)
	}
	if got := raceTitle("Unbound", 12); got != "Unbound Readiness (12 days to go)" {
		t.Errorf("raceTitle = %q", got)
	}
}
