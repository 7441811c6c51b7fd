package analysis

import "time"

// Helper functions for creating test data
func floatPtr(f float64) *float64 {
	return &f
}

func day(offset int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func ride(id int64, date time.Time, minutes int) Activity {
	return Activity{
		ID:              id,
		Name:            "Ride",
		Type:            ActivityRide,
		Date:            date.Add(7 * time.Hour),
		DurationSeconds: minutes * 60,
	}
}

func withPower(a Activity, avg float64) Activity {
	a.AveragePower = floatPtr(avg)
	return a
}

func withTSS(a Activity, tss float64) Activity {
	a.TSS = floatPtr(tss)
	return a
}

func session(week, index int, date time.Time, t SessionType, minutes int) PlannedSession {
	return PlannedSession{
		Week:            week,
		Index:           index,
		Date:            date,
		Type:            t,
		DurationMinutes: minutes,
	}
}

// steadyHistory returns one ride per day for n days ending on end
func steadyHistory(n int, end time.Time, tss, power float64) []Activity {
	activities := make([]Activity, 0, n)
	for i := 0; i < n; i++ {
		a := ride(int64(i+1), end.AddDate(0, 0, i-n+1), 60)
		a = withTSS(a, tss)
		if power > 0 {
			a = withPower(a, power)
		}
		activities = append(activities, a)
	}
	return activities
}
