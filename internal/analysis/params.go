package analysis

// Params holds the tunable constants of the engine.
// Defaults reproduce the published heuristics; hosts may tune them per athlete.
type Params struct {
	// ThresholdHeartRate is the assumed lactate threshold heart rate (bpm)
	// used when an intensity factor has to be derived from heart rate.
	ThresholdHeartRate float64

	// MatchThreshold is the minimum alignment score for an automatic match
	MatchThreshold float64
	// MatchWindowDays is how far either side of the planned date the matcher searches
	MatchWindowDays int

	// AcuteDays and ChronicDays are the EWMA time constants for ATL and CTL
	AcuteDays   int
	ChronicDays int

	// MinReadinessActivities is the smallest history readiness is computed from
	MinReadinessActivities int
	// HistoryDays is the length of the readiness history chart
	HistoryDays int
	// HistorySampleEvery keeps every Nth day of the history chart
	HistorySampleEvery int
}

// DefaultParams returns the standard engine constants
func DefaultParams() Params {
	return Params{
		ThresholdHeartRate:     170,
		MatchThreshold:         50,
		MatchWindowDays:        2,
		AcuteDays:              7,
		ChronicDays:            42,
		MinReadinessActivities: 10,
		HistoryDays:            90,
		HistorySampleEvery:     3,
	}
}

// withDefaults replaces non-positive fields with their default value
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.ThresholdHeartRate <= 0 {
		p.ThresholdHeartRate = d.ThresholdHeartRate
	}
	if p.MatchThreshold <= 0 {
		p.MatchThreshold = d.MatchThreshold
	}
	if p.MatchWindowDays <= 0 {
		p.MatchWindowDays = d.MatchWindowDays
	}
	if p.AcuteDays <= 0 {
		p.AcuteDays = d.AcuteDays
	}
	if p.ChronicDays <= 0 {
		p.ChronicDays = d.ChronicDays
	}
	if p.MinReadinessActivities <= 0 {
		p.MinReadinessActivities = d.MinReadinessActivities
	}
	if p.HistoryDays <= 0 {
		p.HistoryDays = d.HistoryDays
	}
	if p.HistorySampleEvery <= 0 {
		p.HistorySampleEvery = d.HistorySampleEvery
	}
	return p
}
