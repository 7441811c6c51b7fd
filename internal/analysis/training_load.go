package analysis

import (
	"time"
)

// DailyLoad is the summed training stress of one calendar day
type DailyLoad struct {
	Date time.Time
	TSS  float64
}

// DailyTSS sums activity TSS per calendar day over the inclusive window.
// Days without activity are present with zero load. Every activity is
// validated, including those outside the window.
func DailyTSS(activities []Activity, ftp *float64, windowStart, windowEnd time.Time, p Params) ([]DailyLoad, error) {
	if err := validateWindow(windowStart, windowEnd); err != nil {
		return nil, err
	}
	if err := ValidateFTP(ftp); err != nil {
		return nil, err
	}
	if err := ValidateActivities(activities); err != nil {
		return nil, err
	}
	p = p.withDefaults()

	start := calendarDay(windowStart)
	end := calendarDay(windowEnd)

	// Sum multiple activities on the same day
	loadMap := make(map[string]float64)
	for _, a := range activities {
		day := calendarDay(a.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		loadMap[dayKey(day)] += ActivityTSS(a, ftp, p)
	}

	loads := make([]DailyLoad, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		loads = append(loads, DailyLoad{Date: d, TSS: loadMap[dayKey(d)]})
	}
	return loads, nil
}

// CalculateFitnessTrend runs the CTL/ATL recurrence over a contiguous day grid,
// seeded at zero on the first day
func CalculateFitnessTrend(daily []DailyLoad, p Params) []DailyLoadPoint {
	if len(daily) == 0 {
		return nil
	}
	p = p.withDefaults()

	// EMA decay constants
	ctlDecay := 2.0 / (float64(p.ChronicDays) + 1.0)
	atlDecay := 2.0 / (float64(p.AcuteDays) + 1.0)

	points := make([]DailyLoadPoint, 0, len(daily))
	var ctl, atl float64
	for _, d := range daily {
		ctl = ctl + ctlDecay*(d.TSS-ctl)
		atl = atl + atlDecay*(d.TSS-atl)

		points = append(points, DailyLoadPoint{
			Date: d.Date,
			TSS:  d.TSS,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}
	return points
}

// BuildDailySeries computes one DailyLoadPoint per day of the inclusive window.
// The recurrence starts from zero at windowStart, so callers wanting a settled
// value should start the window at least ChronicDays before the date of interest.
func BuildDailySeries(activities []Activity, ftp *float64, windowStart, windowEnd time.Time, p Params) ([]DailyLoadPoint, error) {
	daily, err := DailyTSS(activities, ftp, windowStart, windowEnd, p)
	if err != nil {
		return nil, err
	}
	return CalculateFitnessTrend(daily, p), nil
}

// CurrentLoad returns the last point of a series
func CurrentLoad(series []DailyLoadPoint) DailyLoadPoint {
	if len(series) == 0 {
		return DailyLoadPoint{}
	}
	return series[len(series)-1]
}

// LoadOn returns the point for the given calendar day
func LoadOn(series []DailyLoadPoint, day time.Time) (DailyLoadPoint, bool) {
	if len(series) == 0 {
		return DailyLoadPoint{}, false
	}
	i := DaysBetween(series[0].Date, day)
	if i < 0 || i >= len(series) {
		return DailyLoadPoint{}, false
	}
	return series[i], true
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
