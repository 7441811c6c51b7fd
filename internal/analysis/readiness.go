package analysis

import (
	"fmt"
	"math"
	"time"
)

// ReadinessStatus is the banded readiness verdict
type ReadinessStatus string

const (
	StatusPeak             ReadinessStatus = "peak"
	StatusGood             ReadinessStatus = "good"
	StatusModerate         ReadinessStatus = "moderate"
	StatusLow              ReadinessStatus = "low"
	StatusPoor             ReadinessStatus = "poor"
	StatusInsufficientData ReadinessStatus = "insufficient_data"
)

// Composite weights
const (
	weightForm        = 0.3
	weightFitness     = 0.2
	weightPerformance = 0.2
	weightRecovery    = 0.2
	weightConsistency = 0.1
)

const (
	trendWindowDays       = 14
	recoveryWindowDays    = 3
	consistencyWindowDays = 28
)

// Recommendation levels
const (
	LevelWarning = "warning"
	LevelInfo    = "info"
	LevelSuccess = "success"
)

// ReadinessRequest is the input to PredictReadiness
type ReadinessRequest struct {
	Activities []Activity
	FTP        *float64
	RaceDate   time.Time
	// AsOf is "today". Trailing factors are measured up to the earlier of AsOf and RaceDate.
	AsOf time.Time
}

// FactorContribution is one weighted term of the composite score
type FactorContribution struct {
	Name     string
	Score    float64 // 0-100
	Weight   float64
	Weighted float64
}

// LoadSnapshot is the training load projected to race day
type LoadSnapshot struct {
	CTL  float64
	ATL  float64
	TSB  float64
	Form string
}

// RecoveryStatus summarises the last few days of load
type RecoveryStatus struct {
	Score    float64
	Label    string
	AvgTSS   float64
	RestDays int
}

// Recommendation is one piece of advice raised by the readiness rules
type Recommendation struct {
	Level   string
	Message string
}

// ReadinessReport is the full race readiness assessment
type ReadinessReport struct {
	Status              ReadinessStatus
	Score               float64
	Label               string
	Message             string
	Factors             []FactorContribution
	Load                LoadSnapshot
	PerformanceTrendPct float64
	Recovery            RecoveryStatus
	ConsistencyPct      float64
	Recommendations     []Recommendation
	Taper               TaperAdvice
	DaysToRace          int
	History             []DailyLoadPoint
}

// PredictReadiness scores how prepared the athlete is for a race
func PredictReadiness(req ReadinessRequest, p Params) (*ReadinessReport, error) {
	p = p.withDefaults()
	if req.RaceDate.IsZero() {
		return nil, invalid("race_date", "is required")
	}
	if req.AsOf.IsZero() {
		return nil, invalid("as_of", "is required")
	}
	if err := ValidateFTP(req.FTP); err != nil {
		return nil, err
	}
	if err := ValidateActivities(req.Activities); err != nil {
		return nil, err
	}

	race := calendarDay(req.RaceDate)
	today := calendarDay(req.AsOf)
	daysToRace := DaysBetween(today, race)

	report := &ReadinessReport{
		DaysToRace: daysToRace,
		Taper:      TaperAdviceFor(daysToRace),
	}

	if len(req.Activities) < p.MinReadinessActivities {
		report.Status = StatusInsufficientData
		report.Label = "Insufficient Data"
		report.Message = fmt.Sprintf("At least %d activities are needed to predict readiness (have %d)",
			p.MinReadinessActivities, len(req.Activities))
		return report, nil
	}

	anchor := today
	if race.Before(anchor) {
		anchor = race
	}

	// One pass from far enough back for CTL to settle, through race day
	start := anchor.AddDate(0, 0, -(p.HistoryDays + p.ChronicDays))
	for _, a := range req.Activities {
		if d := calendarDay(a.Date); d.Before(start) {
			start = d
		}
	}
	series, err := BuildDailySeries(req.Activities, req.FTP, start, race, p)
	if err != nil {
		return nil, fmt.Errorf("building load series: %w", err)
	}

	raceDay := CurrentLoad(series)
	report.Load = LoadSnapshot{
		CTL:  raceDay.CTL,
		ATL:  raceDay.ATL,
		TSB:  raceDay.TSB,
		Form: FormDescription(raceDay.TSB),
	}

	form := FormScore(raceDay.TSB)
	fitness := math.Min(100, raceDay.CTL)

	trend, hasTrend := performanceTrend(req.Activities, anchor)
	performance := 50.0
	if hasTrend {
		performance = clamp(50+trend*5, 0, 100)
	}
	report.PerformanceTrendPct = trend

	active := activeDays(req.Activities)
	report.Recovery = recoveryStatus(series, active, anchor)
	report.ConsistencyPct = consistency(active, anchor)

	report.Factors = []FactorContribution{
		contribution("form", form, weightForm),
		contribution("fitness", fitness, weightFitness),
		contribution("performance", performance, weightPerformance),
		contribution("recovery", report.Recovery.Score, weightRecovery),
		contribution("consistency", report.ConsistencyPct, weightConsistency),
	}
	var total float64
	for _, f := range report.Factors {
		total += f.Weighted
	}
	report.Score = clamp(total, 0, 100)
	report.Status, report.Label, report.Message = readinessStatus(report.Score)

	report.Recommendations = recommendations(report)
	report.History = sampleHistory(series, anchor, p)

	return report, nil
}

func contribution(name string, score, weight float64) FactorContribution {
	return FactorContribution{
		Name:     name,
		Score:    score,
		Weight:   weight,
		Weighted: score * weight,
	}
}

// FormScore maps TSB to 0-100, peaking for a fresh but not detrained athlete
func FormScore(tsb float64) float64 {
	var s float64
	switch {
	case tsb >= 5 && tsb <= 15:
		s = 100
	case tsb >= 0 && tsb < 5:
		s = 70 + tsb*6
	case tsb > 15:
		s = 100 - (tsb-15)*3
	case tsb >= -10:
		s = 70 + tsb*3
	default:
		s = 40 + (tsb+10)*4
	}
	return clamp(s, 0, 100)
}

// performanceTrend compares mean average power over the last two weeks with
// the two weeks before. It reports false when either window lacks power data.
func performanceTrend(activities []Activity, anchor time.Time) (float64, bool) {
	var recentSum, olderSum float64
	var recentN, olderN int
	for _, a := range activities {
		if !hasPositive(a.AveragePower) {
			continue
		}
		age := DaysBetween(a.Date, anchor)
		switch {
		case age >= 0 && age < trendWindowDays:
			recentSum += *a.AveragePower
			recentN++
		case age >= trendWindowDays && age < 2*trendWindowDays:
			olderSum += *a.AveragePower
			olderN++
		}
	}
	if recentN == 0 || olderN == 0 {
		return 0, false
	}
	older := olderSum / float64(olderN)
	if older == 0 {
		return 0, false
	}
	recent := recentSum / float64(recentN)
	return (recent - older) / older * 100, true
}

// activeDays is the set of calendar days with at least one activity
func activeDays(activities []Activity) map[string]bool {
	days := make(map[string]bool, len(activities))
	for _, a := range activities {
		days[dayKey(calendarDay(a.Date))] = true
	}
	return days
}

// recoveryStatus scores the trailing days by mean TSS. A rest day has no
// activity at all; a logged zero-TSS activity still counts as training.
func recoveryStatus(series []DailyLoadPoint, active map[string]bool, anchor time.Time) RecoveryStatus {
	var sum float64
	var rest int
	for i := 0; i < recoveryWindowDays; i++ {
		d := anchor.AddDate(0, 0, -i)
		pt, _ := LoadOn(series, d)
		sum += pt.TSS
		if !active[dayKey(calendarDay(d))] {
			rest++
		}
	}
	avg := sum / recoveryWindowDays

	var score float64
	switch {
	case avg > 150:
		score = 30
	case avg > 100:
		score = 50
	case avg > 50:
		score = 70
	default:
		score = 90
	}
	score = math.Min(100, score+float64(rest)*5)

	label := "Well Rested"
	switch {
	case score < 50:
		label = "Fatigued"
	case score < 70:
		label = "Moderate"
	}
	return RecoveryStatus{Score: score, Label: label, AvgTSS: avg, RestDays: rest}
}

// consistency is the share of the trailing 28 days with at least one activity
func consistency(active map[string]bool, anchor time.Time) float64 {
	var n int
	for i := 0; i < consistencyWindowDays; i++ {
		if active[dayKey(calendarDay(anchor.AddDate(0, 0, -i)))] {
			n++
		}
	}
	return float64(n) / consistencyWindowDays * 100
}

func readinessStatus(score float64) (ReadinessStatus, string, string) {
	switch {
	case score >= 85:
		return StatusPeak, "Peak", "You are in peak condition for race day"
	case score >= 70:
		return StatusGood, "Good", "Good readiness with room to sharpen"
	case score >= 50:
		return StatusModerate, "Moderate", "Moderate readiness - adjust training to peak on time"
	case score >= 30:
		return StatusLow, "Low", "Low readiness - significant preparation still needed"
	default:
		return StatusPoor, "Poor", "Poor readiness - consider adjusting race goals"
	}
}

func recommendations(r *ReadinessReport) []Recommendation {
	var recs []Recommendation
	add := func(level, msg string) {
		recs = append(recs, Recommendation{Level: level, Message: msg})
	}

	// TSB bands are exclusive: deep fatigue gets the warning only
	tsb := r.Load.TSB
	switch {
	case tsb < -10:
		add(LevelWarning, "High fatigue detected. Reduce training load and prioritise recovery.")
	case tsb < 0:
		add(LevelInfo, "Mild fatigue present. A few easier days will freshen you up.")
	case tsb > 20:
		add(LevelInfo, "Form is very high and fitness may be fading. Add some quality work.")
	}

	switch {
	case r.PerformanceTrendPct < -5:
		add(LevelWarning, "Performance is declining. Check for overtraining or illness.")
	case r.PerformanceTrendPct > 5:
		add(LevelSuccess, "Performance is improving. Keep up the current training.")
	}

	if r.Recovery.Score < 50 {
		add(LevelWarning, "Recovery is poor. Take a rest day before the next hard session.")
	}

	if r.Load.CTL < 40 && r.Score < 60 {
		add(LevelInfo, "Fitness base is low. Build aerobic volume with consistent endurance rides.")
	}

	if r.Score >= 85 {
		add(LevelSuccess, "Readiness is optimal. Maintain and avoid doing anything new.")
	}
	return recs
}

// sampleHistory keeps every Nth point of the HistoryDays ending at anchor
func sampleHistory(series []DailyLoadPoint, anchor time.Time, p Params) []DailyLoadPoint {
	if len(series) == 0 {
		return nil
	}
	from := DaysBetween(series[0].Date, anchor.AddDate(0, 0, -(p.HistoryDays-1)))
	to := DaysBetween(series[0].Date, anchor)
	if from < 0 {
		from = 0
	}
	if to >= len(series) {
		to = len(series) - 1
	}

	history := make([]DailyLoadPoint, 0, p.HistoryDays/p.HistorySampleEvery+1)
	for i := from; i <= to; i += p.HistorySampleEvery {
		history = append(history, series[i])
	}
	return history
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
