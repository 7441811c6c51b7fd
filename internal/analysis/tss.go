package analysis

// typeMultipliers scale duration-only TSS estimates by sport
var typeMultipliers = map[ActivityType]float64{
	ActivityRide:        1.0,
	ActivityVirtualRide: 1.0,
	ActivityRun:         1.2,
	ActivityWorkout:     0.8,
}

const defaultTypeMultiplier = 0.7

// TypeMultiplier returns the duration-only TSS multiplier for an activity type
func TypeMultiplier(t ActivityType) float64 {
	if m, ok := typeMultipliers[t]; ok {
		return m
	}
	return defaultTypeMultiplier
}

// EstimateTSS estimates the Training Stress Score of an activity.
// TSS = hours * IF^2 * 100, with IF from normalized power/FTP or
// average HR/threshold HR; without either it falls back to
// hours * 60 * a per-sport multiplier.
func EstimateTSS(a Activity, ftp *float64, p Params) float64 {
	p = p.withDefaults()
	hours := a.Hours()
	if hours == 0 {
		return 0
	}

	in := loadIntensity(a, ftp, p)
	switch in.source {
	case sourcePower, sourceHeartRate:
		return hours * in.factor * in.factor * 100
	default:
		return hours * 60 * TypeMultiplier(a.Type)
	}
}

// ActivityTSS returns the recorded TSS when present, otherwise an estimate
func ActivityTSS(a Activity, ftp *float64, p Params) float64 {
	if a.TSS != nil && *a.TSS >= 0 {
		return *a.TSS
	}
	return EstimateTSS(a, ftp, p)
}
