package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func hasRecommendation(recs []Recommendation, level, prefix string) bool {
	for _, r := range recs {
		if r.Level == level && strings.HasPrefix(r.Message, prefix) {
			return true
		}
	}
	return false
}

func TestPredictReadinessInsufficientData(t *testing.T) {
	req := ReadinessRequest{
		Activities: steadyHistory(9, day(30), 60, 200),
		RaceDate:   day(40),
		AsOf:       day(30),
	}

	report, err := PredictReadiness(req, DefaultParams())
	if err != nil {
		t.Fatalf("PredictReadiness() error = %v", err)
	}
	if report.Status != StatusInsufficientData {
		t.Errorf("Status = %q, want insufficient_data", report.Status)
	}
	if report.Score != 0 {
		t.Errorf("Score = %v, want 0", report.Score)
	}
	if len(report.Factors) != 0 || len(report.History) != 0 {
		t.Error("insufficient data report should carry no factors or history")
	}
	if report.DaysToRace != 10 {
		t.Errorf("DaysToRace = %d, want 10", report.DaysToRace)
	}
}

func TestPredictReadinessSteadyTraining(t *testing.T) {
	asOf := day(59)
	req := ReadinessRequest{
		Activities: steadyHistory(60, asOf, 60, 200),
		FTP:        floatPtr(250),
		RaceDate:   asOf.AddDate(0, 0, 10),
		AsOf:       asOf,
	}

	report, err := PredictReadiness(req, DefaultParams())
	if err != nil {
		t.Fatalf("PredictReadiness() error = %v", err)
	}

	if report.Score < 0 || report.Score > 100 {
		t.Errorf("Score = %v, out of range", report.Score)
	}
	if len(report.Factors) != 5 {
		t.Fatalf("expected 5 factors, got %d", len(report.Factors))
	}
	var weights, weighted float64
	for _, f := range report.Factors {
		weights += f.Weight
		weighted += f.Weighted
	}
	if math.Abs(weights-1) > 1e-9 {
		t.Errorf("factor weights sum to %v, want 1", weights)
	}
	if math.Abs(weighted-report.Score) > 1e-9 {
		t.Errorf("weighted sum %v != score %v", weighted, report.Score)
	}

	if report.DaysToRace != 10 || report.Taper.Phase != PhasePreTaper {
		t.Errorf("DaysToRace/Phase = %d/%q, want 10/pre-taper", report.DaysToRace, report.Taper.Phase)
	}
	if report.PerformanceTrendPct != 0 {
		t.Errorf("PerformanceTrendPct = %v, want 0", report.PerformanceTrendPct)
	}
	if report.ConsistencyPct != 100 {
		t.Errorf("ConsistencyPct = %v, want 100", report.ConsistencyPct)
	}
	if report.Recovery.Score != 70 || report.Recovery.Label != "Well Rested" {
		t.Errorf("Recovery = %+v, want 70 Well Rested", report.Recovery)
	}

	// Ten rest days before the race leave the athlete fresher than today
	today, _ := BuildDailySeries(req.Activities, req.FTP, day(0), asOf, DefaultParams())
	if report.Load.TSB <= CurrentLoad(today).TSB {
		t.Errorf("race-day TSB %v should exceed today's %v", report.Load.TSB, CurrentLoad(today).TSB)
	}
	if math.Abs(report.Load.TSB-(report.Load.CTL-report.Load.ATL)) > 1e-9 {
		t.Error("TSB != CTL - ATL")
	}

	if len(report.History) != 30 {
		t.Fatalf("History has %d points, want 30", len(report.History))
	}
	if !report.History[0].Date.Equal(asOf.AddDate(0, 0, -89)) {
		t.Errorf("History starts %v, want %v", report.History[0].Date, asOf.AddDate(0, 0, -89))
	}
	for i := 1; i < len(report.History); i++ {
		if DaysBetween(report.History[i-1].Date, report.History[i].Date) != 3 {
			t.Fatalf("History not sampled every third day at %d", i)
		}
		if report.History[i].Date.After(asOf) {
			t.Fatalf("History point %v after anchor", report.History[i].Date)
		}
	}
}

func TestPredictReadinessPerformanceTrend(t *testing.T) {
	asOf := day(59)
	activities := steadyHistory(60, asOf, 60, 200)
	for i := range activities {
		if DaysBetween(activities[i].Date, asOf) < 14 {
			activities[i].AveragePower = floatPtr(220)
		}
	}

	report, err := PredictReadiness(ReadinessRequest{
		Activities: activities,
		RaceDate:   asOf.AddDate(0, 0, 30),
		AsOf:       asOf,
	}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(report.PerformanceTrendPct-10) > 1e-9 {
		t.Errorf("PerformanceTrendPct = %v, want 10", report.PerformanceTrendPct)
	}
	if perf := report.Factors[2]; perf.Name != "performance" || perf.Score != 100 {
		t.Errorf("performance factor = %+v, want 100", perf)
	}
	if !hasRecommendation(report.Recommendations, LevelSuccess, "Performance is improving") {
		t.Errorf("missing improvement note in %+v", report.Recommendations)
	}
	if report.Taper.Phase != PhaseBuild {
		t.Errorf("Phase = %q, want build", report.Taper.Phase)
	}
}

func TestPredictReadinessNoPowerIsNeutral(t *testing.T) {
	asOf := day(59)
	report, err := PredictReadiness(ReadinessRequest{
		Activities: steadyHistory(60, asOf, 60, 0),
		RaceDate:   asOf.AddDate(0, 0, 5),
		AsOf:       asOf,
	}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if perf := report.Factors[2]; perf.Score != 50 {
		t.Errorf("performance factor = %v, want neutral 50", perf.Score)
	}
}

func TestPredictReadinessFatigued(t *testing.T) {
	asOf := day(59)
	activities := steadyHistory(60, asOf, 60, 200)
	for i := range activities {
		if DaysBetween(activities[i].Date, asOf) < 3 {
			activities[i].TSS = floatPtr(200)
		}
	}

	report, err := PredictReadiness(ReadinessRequest{
		Activities: activities,
		RaceDate:   asOf,
		AsOf:       asOf,
	}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	if report.Recovery.Score != 30 || report.Recovery.Label != "Fatigued" {
		t.Errorf("Recovery = %+v, want 30 Fatigued", report.Recovery)
	}
	if !hasRecommendation(report.Recommendations, LevelWarning, "Recovery is poor") {
		t.Errorf("missing recovery warning in %+v", report.Recommendations)
	}
	if report.Load.TSB >= 0 {
		t.Errorf("TSB = %v, expected fatigue", report.Load.TSB)
	}
	if report.Taper.Phase != PhaseFinalPrep {
		t.Errorf("Phase = %q, want final-prep", report.Taper.Phase)
	}
}

func TestPredictReadinessRestDaysBoostRecovery(t *testing.T) {
	asOf := day(59)
	// train until three days ago
	activities := steadyHistory(57, asOf.AddDate(0, 0, -3), 60, 200)

	report, err := PredictReadiness(ReadinessRequest{
		Activities: activities,
		RaceDate:   asOf.AddDate(0, 0, 7),
		AsOf:       asOf,
	}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if report.Recovery.RestDays != 3 || report.Recovery.Score != 100 {
		t.Errorf("Recovery = %+v, want 3 rest days and score 100", report.Recovery)
	}
	if report.Taper.Phase != PhaseTaper {
		t.Errorf("Phase = %q, want taper", report.Taper.Phase)
	}
}

func TestPredictReadinessAfterRace(t *testing.T) {
	race := day(59)
	report, err := PredictReadiness(ReadinessRequest{
		Activities: steadyHistory(60, race, 60, 200),
		RaceDate:   race,
		AsOf:       race.AddDate(0, 0, 1),
	}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if report.DaysToRace != -1 || report.Taper.Phase != PhasePostRace {
		t.Errorf("DaysToRace/Phase = %d/%q, want -1/post-race", report.DaysToRace, report.Taper.Phase)
	}
	if report.ConsistencyPct != 100 {
		t.Errorf("ConsistencyPct = %v, trailing window should end at the race", report.ConsistencyPct)
	}
}

func TestPredictReadinessScoreBounded(t *testing.T) {
	asOf := day(200)
	for _, tss := range []float64{0, 10, 80, 150, 400, 1000} {
		for _, power := range []float64{0, 50, 400} {
			activities := steadyHistory(120, asOf, tss, power)
			report, err := PredictReadiness(ReadinessRequest{
				Activities: activities,
				FTP:        floatPtr(250),
				RaceDate:   asOf.AddDate(0, 0, 3),
				AsOf:       asOf,
			}, DefaultParams())
			if err != nil {
				t.Fatalf("tss=%v power=%v: %v", tss, power, err)
			}
			if report.Score < 0 || report.Score > 100 {
				t.Errorf("tss=%v power=%v: Score = %v out of range", tss, power, report.Score)
			}
			for _, f := range report.Factors {
				if f.Score < 0 || f.Score > 100 {
					t.Errorf("tss=%v power=%v: factor %s = %v out of range", tss, power, f.Name, f.Score)
				}
			}
		}
	}
}

func TestPredictReadinessInvalidInput(t *testing.T) {
	bad := steadyHistory(12, day(30), 60, 200)
	bad[3].DurationSeconds = -10

	tests := []struct {
		name  string
		req   ReadinessRequest
		field string
	}{
		{"missing race date", ReadinessRequest{Activities: bad[:1], AsOf: day(30)}, "race_date"},
		{"negative duration", ReadinessRequest{Activities: bad, RaceDate: day(40), AsOf: day(30)}, "activity[4].duration"},
		{"zero FTP", ReadinessRequest{FTP: floatPtr(0), RaceDate: day(40), AsOf: day(30)}, "ftp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PredictReadiness(tt.req, DefaultParams())
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("Field = %v, want %q", err, tt.field)
			}
		})
	}
}

func TestFormScore(t *testing.T) {
	tests := []struct {
		tsb      float64
		expected float64
	}{
		{10, 100},
		{5, 100},
		{15, 100},
		{2.5, 85},
		{0, 70},
		{20, 85},
		{25, 70},
		{40, 25},
		{-5, 55},
		{-10, 40},
		{-15, 20},
		{-20, 0},
		{-100, 0},
		{100, 0},
	}
	for _, tt := range tests {
		if got := FormScore(tt.tsb); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("FormScore(%v) = %v, want %v", tt.tsb, got, tt.expected)
		}
	}
}

func TestReadinessStatusBands(t *testing.T) {
	tests := []struct {
		score float64
		want  ReadinessStatus
	}{
		{100, StatusPeak},
		{85, StatusPeak},
		{84.9, StatusGood},
		{70, StatusGood},
		{50, StatusModerate},
		{30, StatusLow},
		{29.9, StatusPoor},
		{0, StatusPoor},
	}
	for _, tt := range tests {
		if got, _, _ := readinessStatus(tt.score); got != tt.want {
			t.Errorf("readinessStatus(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestRecommendationsCoOccur(t *testing.T) {
	r := &ReadinessReport{
		Score:               45,
		Load:                LoadSnapshot{CTL: 30, TSB: -15},
		PerformanceTrendPct: -8,
		Recovery:            RecoveryStatus{Score: 30},
	}
	recs := recommendations(r)
	if len(recs) != 4 {
		t.Fatalf("expected 4 recommendations, got %+v", recs)
	}
	if !hasRecommendation(recs, LevelWarning, "High fatigue") {
		t.Error("missing high fatigue warning")
	}
	if hasRecommendation(recs, LevelInfo, "Mild fatigue") {
		t.Error("deep fatigue should not also get the mild fatigue note")
	}
	if !hasRecommendation(recs, LevelWarning, "Performance is declining") {
		t.Error("missing decline warning")
	}
	if !hasRecommendation(recs, LevelInfo, "Fitness base is low") {
		t.Error("missing build base note")
	}
}

func TestRecoveryRestDaysNeedNoActivity(t *testing.T) {
	logged := withTSS(ride(1, day(0), 0), 0)
	unknown := ride(2, day(2), 0) // no duration, no TSS

	activities := []Activity{logged, unknown}
	series, err := BuildDailySeries(activities, nil, day(0), day(2), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	for _, pt := range series {
		if pt.TSS != 0 {
			t.Fatalf("TSS on %v = %v, want 0", pt.Date, pt.TSS)
		}
	}

	got := recoveryStatus(series, activeDays(activities), day(2))
	if got.RestDays != 1 {
		t.Errorf("RestDays = %d, want 1 (only the empty day)", got.RestDays)
	}
	if got.Score != 95 {
		t.Errorf("Score = %v, want 90 + 5", got.Score)
	}
}
