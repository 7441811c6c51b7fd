package analysis

import (
	"fmt"
	"sort"
	"time"
)

// ActivityType is the sport of a completed activity
type ActivityType string

const (
	ActivityRide        ActivityType = "Ride"
	ActivityVirtualRide ActivityType = "VirtualRide"
	ActivityRun         ActivityType = "Run"
	ActivityWorkout     ActivityType = "Workout"
	ActivityOther       ActivityType = "Other"
)

// ParseActivityType maps a provider sport name onto ActivityType.
// Unknown names become ActivityOther.
func ParseActivityType(s string) ActivityType {
	switch s {
	case "Ride", "EBikeRide", "GravelRide", "MountainBikeRide":
		return ActivityRide
	case "VirtualRide":
		return ActivityVirtualRide
	case "Run", "TrailRun", "VirtualRun":
		return ActivityRun
	case "Workout", "WeightTraining", "Crossfit":
		return ActivityWorkout
	default:
		return ActivityOther
	}
}

// IsRide reports whether the activity was done on a bike
func (t ActivityType) IsRide() bool {
	return t == ActivityRide || t == ActivityVirtualRide
}

// Activity is a completed workout as supplied by the host.
// Optional metrics are pointers: nil means unknown, never zero.
type Activity struct {
	ID               int64
	Name             string
	Type             ActivityType
	Date             time.Time
	DurationSeconds  int
	DistanceMeters   *float64
	AveragePower     *float64 // watts
	NormalizedPower  *float64 // watts
	AverageHeartRate *float64 // bpm
	TSS              *float64 // recorded by the device or provider
	ElevationGain    *float64 // meters
}

// Hours returns the activity duration in hours
func (a Activity) Hours() float64 {
	if a.DurationSeconds <= 0 {
		return 0
	}
	return float64(a.DurationSeconds) / 3600.0
}

// SessionType is the prescribed intensity of a planned session
type SessionType string

const (
	SessionRecovery  SessionType = "Recovery"
	SessionEndurance SessionType = "Endurance"
	SessionTempo     SessionType = "Tempo"
	SessionThreshold SessionType = "Threshold"
	SessionVO2Max    SessionType = "VO2Max"
	SessionIntervals SessionType = "Intervals"
)

// SessionTypes lists every valid session type in ascending intensity
var SessionTypes = []SessionType{
	SessionRecovery,
	SessionEndurance,
	SessionTempo,
	SessionThreshold,
	SessionVO2Max,
	SessionIntervals,
}

// Valid reports whether t is one of the known session types
func (t SessionType) Valid() bool {
	for _, st := range SessionTypes {
		if st == t {
			return true
		}
	}
	return false
}

// SessionKey identifies a planned session within a plan
type SessionKey struct {
	Week  int
	Index int
}

func (k SessionKey) String() string {
	return fmt.Sprintf("w%ds%d", k.Week, k.Index)
}

// ParseSessionKey parses the "w<week>s<index>" form produced by String
func ParseSessionKey(s string) (SessionKey, error) {
	var k SessionKey
	if _, err := fmt.Sscanf(s, "w%ds%d", &k.Week, &k.Index); err != nil || k.String() != s {
		return SessionKey{}, invalid("session", fmt.Sprintf("malformed key %q", s))
	}
	if k.Week <= 0 || k.Index <= 0 {
		return SessionKey{}, invalid("session", fmt.Sprintf("malformed key %q", s))
	}
	return k, nil
}

// PlannedSession is one prescribed workout on a concrete calendar date
type PlannedSession struct {
	Week            int
	Index           int
	Date            time.Time
	Type            SessionType
	DurationMinutes int
	Description     string
}

// Key returns the (week, index) identity of the session
func (s PlannedSession) Key() SessionKey {
	return SessionKey{Week: s.Week, Index: s.Index}
}

// PlanWeek groups the sessions of one training week
type PlanWeek struct {
	Number   int
	Sessions []PlannedSession
}

// Plan is a full training plan
type Plan struct {
	Name  string
	Weeks []PlanWeek
}

// Sessions flattens the plan in week then index order.
// Week is filled from the enclosing week when unset.
func (p Plan) Sessions() []PlannedSession {
	var sessions []PlannedSession
	for _, w := range p.Weeks {
		for _, s := range w.Sessions {
			if s.Week == 0 {
				s.Week = w.Number
			}
			sessions = append(sessions, s)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Week != sessions[j].Week {
			return sessions[i].Week < sessions[j].Week
		}
		return sessions[i].Index < sessions[j].Index
	})
	return sessions
}

// MatchRecord is the outcome of matching one planned session
type MatchRecord struct {
	Key        SessionKey
	Matched    bool
	Activity   *Activity
	Score      float64 // 0-100, present even when unmatched
	DateOffset int     // days; negative = done early
	Reason     string
	Breakdown  ScoreBreakdown
}

// CompletionRecord is one entry of the completion ledger
type CompletionRecord struct {
	Completed      bool
	Automatic      bool
	ManualOverride bool
	Missed         bool
	// Legacy marks an entry that only recorded "done" with no details
	Legacy       bool
	MissedReason string
	MissedDate   *time.Time
	Score        float64
	ActivityID   *int64
	Reason       string
}

// DailyLoadPoint is the training load state at the end of one calendar day
type DailyLoadPoint struct {
	Date time.Time
	TSS  float64
	CTL  float64 // Chronic Training Load (42-day EWMA) - "Fitness"
	ATL  float64 // Acute Training Load (7-day EWMA) - "Fatigue"
	TSB  float64 // Training Stress Balance (CTL - ATL) - "Form"
}
