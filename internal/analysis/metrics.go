package analysis

// intensitySource is the best metric available to derive an intensity factor
type intensitySource int

const (
	sourceNone intensitySource = iota
	sourcePower
	sourceHeartRate
)

func (s intensitySource) String() string {
	switch s {
	case sourcePower:
		return "power"
	case sourceHeartRate:
		return "heart_rate"
	default:
		return "none"
	}
}

// intensity is the classified intensity of one activity
type intensity struct {
	source intensitySource
	factor float64 // IF; 0 when source is sourceNone
}

func hasPositive(v *float64) bool {
	return v != nil && *v > 0
}

// loadIntensity classifies the activity once for TSS estimation:
// normalized power with FTP, then average heart rate, then nothing.
func loadIntensity(a Activity, ftp *float64, p Params) intensity {
	switch {
	case hasPositive(a.NormalizedPower) && hasPositive(ftp):
		return intensity{source: sourcePower, factor: *a.NormalizedPower / *ftp}
	case hasPositive(a.AverageHeartRate) && p.ThresholdHeartRate > 0:
		return intensity{source: sourceHeartRate, factor: *a.AverageHeartRate / p.ThresholdHeartRate}
	default:
		return intensity{source: sourceNone}
	}
}

// sessionIntensity classifies the activity for session scoring:
// average power with FTP, then average heart rate, then nothing.
func sessionIntensity(a Activity, ftp *float64, p Params) intensity {
	switch {
	case hasPositive(a.AveragePower) && hasPositive(ftp):
		return intensity{source: sourcePower, factor: *a.AveragePower / *ftp}
	case hasPositive(a.AverageHeartRate) && p.ThresholdHeartRate > 0:
		return intensity{source: sourceHeartRate, factor: *a.AverageHeartRate / p.ThresholdHeartRate}
	default:
		return intensity{source: sourceNone}
	}
}
