package store

import (
	"strings"
	"time"

	"endurance-coach/internal/analysis"
)

// Activity sources
const (
	SourceStrava = "strava"
	SourceFIT    = "fit"
)

// ScopePrivateActivities is the Strava scope that exposes private rides
const ScopePrivateActivities = "activity:read_all"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	// Scope is what the athlete granted, comma separated. Empty when unknown.
	Scope string `db:"scope"`
}

// HasScope reports whether the athlete granted scope
func (a Auth) HasScope(scope string) bool {
	for _, s := range strings.Split(a.Scope, ",") {
		if strings.TrimSpace(s) == scope {
			return true
		}
	}
	return false
}

// Activity is a stored activity summary
type Activity struct {
	ID                   int64     `db:"id"`
	Source               string    `db:"source"`
	Name                 string    `db:"name"`
	Type                 string    `db:"type"`
	StartDate            time.Time `db:"start_date"`
	StartDateLocal       time.Time `db:"start_date_local"`
	Timezone             string    `db:"timezone"`
	Distance             *float64  `db:"distance"`     // meters
	MovingTime           int       `db:"moving_time"`  // seconds
	ElapsedTime          int       `db:"elapsed_time"` // seconds
	TotalElevationGain   *float64  `db:"total_elevation_gain"`
	AverageHeartrate     *float64  `db:"average_heartrate"`      // nullable
	MaxHeartrate         *float64  `db:"max_heartrate"`          // nullable
	AverageWatts         *float64  `db:"average_watts"`          // nullable
	WeightedAverageWatts *float64  `db:"weighted_average_watts"` // normalized power, nullable
	DeviceWatts          bool      `db:"device_watts"`
	Kilojoules           *float64  `db:"kilojoules"`
	TSS                  *float64  `db:"tss"` // recorded by the device, nullable
}

// ToAnalysis converts a stored activity into the engine's model.
// The local start date is used so calendar days match the athlete's wall clock.
func (a Activity) ToAnalysis() analysis.Activity {
	return analysis.Activity{
		ID:               a.ID,
		Name:             a.Name,
		Type:             analysis.ParseActivityType(a.Type),
		Date:             a.StartDateLocal,
		DurationSeconds:  a.MovingTime,
		DistanceMeters:   a.Distance,
		AveragePower:     a.AverageWatts,
		NormalizedPower:  a.WeightedAverageWatts,
		AverageHeartRate: a.AverageHeartrate,
		TSS:              a.TSS,
		ElevationGain:    a.TotalElevationGain,
	}
}

// PlanInfo describes a stored training plan
type PlanInfo struct {
	ID         string
	Name       string
	Active     bool
	ImportedAt time.Time
	Sessions   int
}
