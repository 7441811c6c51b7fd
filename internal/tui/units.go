package tui

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"endurance-coach/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
	feetPerMeter  = 3.28084
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit.
// Unknown distances render as "-".
func (u Units) FormatDistance(meters *float64) string {
	if meters == nil {
		return "-"
	}
	if u.IsMiles() {
		return fmt.Sprintf("%.1f mi", *meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", *meters/metersPerKm)
}

// FormatElevation formats climbing in feet or meters to match the distance unit
func (u Units) FormatElevation(meters *float64) string {
	if meters == nil {
		return "-"
	}
	if u.IsMiles() {
		return humanize.Comma(int64(*meters*feetPerMeter)) + " ft"
	}
	return humanize.Comma(int64(*meters)) + " m"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func formatWatts(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%.0fW", *w)
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
