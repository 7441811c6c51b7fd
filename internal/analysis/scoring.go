package analysis

import "math"

// Maximum points per scoring factor
const (
	durationPoints  = 30.0
	intensityPoints = 40.0
	kindPoints      = 20.0
	effortPoints    = 10.0
)

// bandTolerance absorbs floating point error at band edges
const bandTolerance = 1e-9

// band is an inclusive intensity factor range
type band struct {
	Low  float64
	High float64
}

// distance returns how far x lies outside the band (0 when inside)
func (b band) distance(x float64) float64 {
	switch {
	case x < b.Low-bandTolerance:
		return b.Low - x
	case x > b.High+bandTolerance:
		return x - b.High
	default:
		return 0
	}
}

// powerBands are avgPower/FTP targets per session type
var powerBands = map[SessionType]band{
	SessionRecovery:  {0, 0.55},
	SessionEndurance: {0.55, 0.75},
	SessionTempo:     {0.75, 0.90},
	SessionThreshold: {0.90, 1.05},
	SessionVO2Max:    {1.05, 1.20},
	SessionIntervals: {1.05, 1.30},
}

// heartRateBands are avgHR/thresholdHR targets per session type
var heartRateBands = map[SessionType]band{
	SessionRecovery:  {0, 0.68},
	SessionEndurance: {0.68, 0.83},
	SessionTempo:     {0.83, 0.94},
	SessionThreshold: {0.94, 1.02},
	SessionVO2Max:    {1.02, 1.10},
	SessionIntervals: {0.98, 1.10},
}

// sessionIF is the assumed intensity factor of each session type
var sessionIF = map[SessionType]float64{
	SessionRecovery:  0.5,
	SessionEndurance: 0.65,
	SessionTempo:     0.85,
	SessionThreshold: 0.95,
	SessionVO2Max:    1.10,
	SessionIntervals: 1.05,
}

// ExpectedTSS is the stress a session of this type and length should produce
func ExpectedTSS(t SessionType, hours float64) float64 {
	f, ok := sessionIF[t]
	if !ok || hours <= 0 {
		return 0
	}
	return hours * f * f * 100
}

// FactorScore is the contribution of one scoring factor
type FactorScore struct {
	Points    float64
	Max       float64
	Evaluated bool
	Source    string
}

// ScoreBreakdown holds all factor contributions of an alignment score
type ScoreBreakdown struct {
	Duration  FactorScore
	Intensity FactorScore
	Kind      FactorScore
	Effort    FactorScore
}

func (b ScoreBreakdown) factors() []FactorScore {
	return []FactorScore{b.Duration, b.Intensity, b.Kind, b.Effort}
}

// Total normalizes the evaluated points to 0-100.
// Factors that could not be evaluated count toward neither side.
func (b ScoreBreakdown) Total() float64 {
	var points, possible float64
	for _, f := range b.factors() {
		if !f.Evaluated {
			continue
		}
		points += f.Points
		possible += f.Max
	}
	if possible == 0 {
		return 0
	}
	return points / possible * 100
}

// ScoreSession scores how well an activity fulfils a planned session
func ScoreSession(s PlannedSession, a Activity, ftp *float64, p Params) ScoreBreakdown {
	p = p.withDefaults()
	return ScoreBreakdown{
		Duration:  scoreDuration(s, a),
		Intensity: scoreIntensity(s, a, ftp, p),
		Kind:      scoreKind(a),
		Effort:    scoreEffort(s, a),
	}
}

func scoreDuration(s PlannedSession, a Activity) FactorScore {
	f := FactorScore{Max: durationPoints}
	planned := float64(s.DurationMinutes) * 60
	if planned <= 0 || a.DurationSeconds <= 0 {
		return f
	}
	f.Evaluated = true

	diff := math.Abs(float64(a.DurationSeconds)-planned) / planned
	switch {
	case diff <= 0.10:
		f.Points = durationPoints
	case diff <= 0.20:
		f.Points = 20
	case diff <= 0.30:
		f.Points = 10
	}
	return f
}

func scoreIntensity(s PlannedSession, a Activity, ftp *float64, p Params) FactorScore {
	f := FactorScore{Max: intensityPoints}
	in := sessionIntensity(a, ftp, p)
	f.Source = in.source.String()

	switch in.source {
	case sourcePower:
		b, ok := powerBands[s.Type]
		if !ok {
			return f
		}
		f.Evaluated = true
		switch d := b.distance(in.factor); {
		case d == 0:
			f.Points = intensityPoints
		case d <= 0.05+bandTolerance:
			f.Points = intensityPoints * 0.7
		case d <= 0.10+bandTolerance:
			f.Points = intensityPoints * 0.4
		}
	case sourceHeartRate:
		b, ok := heartRateBands[s.Type]
		if !ok {
			return f
		}
		f.Evaluated = true
		switch d := b.distance(in.factor); {
		case d == 0:
			f.Points = intensityPoints
		case d <= 0.05+bandTolerance:
			f.Points = intensityPoints * 0.7
		}
	}
	return f
}

func scoreKind(a Activity) FactorScore {
	f := FactorScore{Max: kindPoints, Evaluated: true}
	if a.Type.IsRide() {
		f.Points = kindPoints
	}
	return f
}

// scoreEffort compares the recorded TSS with the session's expected TSS.
// Activities without a recorded TSS are not evaluated.
func scoreEffort(s PlannedSession, a Activity) FactorScore {
	f := FactorScore{Max: effortPoints}
	if a.TSS == nil {
		return f
	}
	hours := float64(s.DurationMinutes) / 60
	if hours <= 0 {
		hours = a.Hours()
	}
	expected := ExpectedTSS(s.Type, hours)
	if expected <= 0 {
		return f
	}
	f.Evaluated = true

	diff := math.Abs(*a.TSS-expected) / expected
	switch {
	case diff <= 0.20:
		f.Points = effortPoints
	case diff <= 0.40:
		f.Points = effortPoints / 2
	}
	return f
}
