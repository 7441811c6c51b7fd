package analysis

import (
	"math"
	"testing"
)

func TestScoreSession(t *testing.T) {
	ftp := floatPtr(250)

	tests := []struct {
		name     string
		session  PlannedSession
		activity Activity
		ftp      *float64
		expected float64
	}{
		{
			name:     "endurance in band",
			session:  session(1, 1, day(0), SessionEndurance, 60),
			activity: withPower(ride(1, day(0), 58), 150),
			ftp:      ftp,
			expected: 100,
		},
		{
			name:     "power just above band",
			session:  session(1, 1, day(0), SessionEndurance, 60),
			activity: withPower(ride(1, day(0), 60), 200), // IF 0.80, 0.05 over
			ftp:      ftp,
			// (30 + 28 + 20) / 90
			expected: 78.0 / 90 * 100,
		},
		{
			name:     "power well above band",
			session:  session(1, 1, day(0), SessionRecovery, 60),
			activity: withPower(ride(1, day(0), 60), 200), // IF 0.80, 0.25 over
			ftp:      ftp,
			expected: 50.0 / 90 * 100,
		},
		{
			name:     "duration 15% short",
			session:  session(1, 1, day(0), SessionTempo, 100),
			activity: withPower(ride(1, day(0), 85), 200), // IF 0.80
			ftp:      ftp,
			expected: 80.0 / 90 * 100,
		},
		{
			name:    "heart rate when FTP unknown",
			session: session(1, 1, day(0), SessionTempo, 60),
			activity: func() Activity {
				a := ride(1, day(0), 60)
				a.AverageHeartRate = floatPtr(150) // 0.88 of 170
				return a
			}(),
			ftp:      nil,
			expected: 100,
		},
		{
			name:     "no intensity data skips factor",
			session:  session(1, 1, day(0), SessionThreshold, 60),
			activity: ride(1, day(0), 60),
			ftp:      ftp,
			expected: 100,
		},
		{
			name:     "non-ride gets no kind points",
			session:  session(1, 1, day(0), SessionEndurance, 60),
			activity: Activity{ID: 1, Type: ActivityRun, Date: day(0), DurationSeconds: 3600},
			ftp:      ftp,
			expected: 30.0 / 50 * 100,
		},
		{
			name:     "recorded TSS close to expected",
			session:  session(1, 1, day(0), SessionThreshold, 60),
			activity: withTSS(withPower(ride(1, day(0), 60), 240), 90), // expected 90.25
			ftp:      ftp,
			expected: 100,
		},
		{
			name:     "recorded TSS 30% off",
			session:  session(1, 1, day(0), SessionThreshold, 60),
			activity: withTSS(withPower(ride(1, day(0), 60), 240), 63),
			ftp:      ftp,
			expected: 95,
		},
		{
			name:     "recorded TSS far off",
			session:  session(1, 1, day(0), SessionThreshold, 60),
			activity: withTSS(withPower(ride(1, day(0), 60), 240), 20),
			ftp:      ftp,
			expected: 90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ScoreSession(tt.session, tt.activity, tt.ftp, DefaultParams())
			if got := b.Total(); math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("Total() = %v, want %v (breakdown %+v)", got, tt.expected, b)
			}
		})
	}
}

func TestScoreBreakdownNothingEvaluated(t *testing.T) {
	var b ScoreBreakdown
	if got := b.Total(); got != 0 {
		t.Errorf("Total() = %v, want 0", got)
	}
}

func TestIntensitySource(t *testing.T) {
	s := session(1, 1, day(0), SessionTempo, 60)
	a := ride(1, day(0), 60)
	a.AverageHeartRate = floatPtr(150)
	a.AveragePower = floatPtr(200)

	b := ScoreSession(s, a, floatPtr(250), DefaultParams())
	if b.Intensity.Source != "power" {
		t.Errorf("Source = %q, want power", b.Intensity.Source)
	}

	b = ScoreSession(s, a, nil, DefaultParams())
	if b.Intensity.Source != "heart_rate" {
		t.Errorf("Source = %q, want heart_rate", b.Intensity.Source)
	}
}

func TestExpectedTSS(t *testing.T) {
	if got := ExpectedTSS(SessionThreshold, 1); math.Abs(got-90.25) > 0.001 {
		t.Errorf("ExpectedTSS(Threshold, 1h) = %v, want 90.25", got)
	}
	if got := ExpectedTSS(SessionType("Swim"), 1); got != 0 {
		t.Errorf("ExpectedTSS(unknown) = %v, want 0", got)
	}
	if got := ExpectedTSS(SessionEndurance, 0); got != 0 {
		t.Errorf("ExpectedTSS(0h) = %v, want 0", got)
	}
}

func TestDurationScoreMonotonic(t *testing.T) {
	ftp := floatPtr(250)
	s := session(1, 1, day(0), SessionEndurance, 60)
	planned := 3600

	for _, dir := range []int{1, -1} {
		prev := math.Inf(1)
		// step 1% of the planned duration from 0% to 50% off
		for pct := 0; pct <= 50; pct++ {
			a := withPower(ride(1, day(0), 60), 150)
			a.DurationSeconds = planned + dir*pct*planned/100

			b := ScoreSession(s, a, ftp, DefaultParams())
			if !b.Intensity.Evaluated || b.Intensity.Points != intensityPoints {
				t.Fatalf("intensity changed at %d%%: %+v", dir*pct, b.Intensity)
			}
			if b.Duration.Points > prev {
				t.Errorf("duration points rose from %v to %v at %d%% off", prev, b.Duration.Points, dir*pct)
			}
			prev = b.Duration.Points
		}
	}
}

func TestDurationScoreBandEdges(t *testing.T) {
	s := session(1, 1, day(0), SessionEndurance, 100)

	tests := []struct {
		seconds int
		want    float64
	}{
		{6000, 30},
		{6600, 30}, // exactly 10% over
		{5400, 30}, // exactly 10% under
		{6601, 20},
		{7200, 20}, // exactly 20%
		{4800, 20},
		{7201, 10},
		{7800, 10}, // exactly 30%
		{4200, 10},
		{7801, 0},
		{4199, 0},
	}

	for _, tt := range tests {
		a := ride(1, day(0), 0)
		a.DurationSeconds = tt.seconds
		got := ScoreSession(s, a, nil, DefaultParams()).Duration.Points
		if got != tt.want {
			t.Errorf("duration %ds: points = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}
