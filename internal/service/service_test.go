package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/config"
	"endurance-coach/internal/logger"
	"endurance-coach/internal/planfile"
	"endurance-coach/internal/store"
)

// openTestStore creates an in-memory database with migrations applied
func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.OpenPath(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func floatPtr(f float64) *float64 {
	return &f
}

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

// storeRide inserts a Strava ride starting at 07:00 local on day
func storeRide(t *testing.T, s *store.Store, id int64, day time.Time, minutes int, watts float64) {
	t.Helper()
	local := day.Add(7 * time.Hour)
	require.NoError(t, s.UpsertActivity(&store.Activity{
		ID:                   id,
		Source:               store.SourceStrava,
		Name:                 "Ride",
		Type:                 "Ride",
		StartDate:            local,
		StartDateLocal:       local,
		MovingTime:           minutes * 60,
		ElapsedTime:          minutes * 60,
		AverageWatts:         floatPtr(watts),
		WeightedAverageWatts: floatPtr(watts),
		DeviceWatts:          true,
	}))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Athlete.FTP = 250
	cfg.Race = config.RaceConfig{Name: "Gran Fondo", Date: "2024-06-20"}
	return &cfg
}

func newTestCoach(t *testing.T, s *store.Store, now time.Time) *CoachService {
	t.Helper()
	c := NewCoachService(s, s, s, testConfig(), logger.Nop())
	c.now = func() time.Time { return now }
	return c
}

const testPlan = `
name: June Block
weeks:
  - number: 1
    sessions:
      - {index: 1, date: 2024-06-03, type: Endurance, duration_minutes: 90}
      - {index: 2, date: 2024-06-05, type: Threshold, duration_minutes: 60}
      - {index: 3, date: 2024-06-20, type: Tempo, duration_minutes: 60}
  - number: 2
    sessions:
      - {index: 1, date: 2024-06-07, type: Recovery, duration_minutes: 30, done: true}
`

func importTestPlan(t *testing.T, s *store.Store) {
	t.Helper()
	res, err := planfile.Parse([]byte(testPlan))
	require.NoError(t, err)
	info, err := ImportPlan(s, s, res)
	require.NoError(t, err)
	require.Equal(t, 4, info.Sessions)
}

func TestPlanStatusNoPlan(t *testing.T) {
	s := openTestStore(t)
	c := newTestCoach(t, s, date(time.June, 10))

	_, err := c.PlanStatus()
	require.ErrorIs(t, err, store.ErrNoPlan)
}

func TestPlanStatus(t *testing.T) {
	s := openTestStore(t)
	importTestPlan(t, s)
	storeRide(t, s, 1, date(time.June, 3), 90, 150) // endurance on the day
	storeRide(t, s, 2, date(time.June, 6), 60, 240) // threshold a day late

	c := newTestCoach(t, s, date(time.June, 10))
	status, err := c.PlanStatus()
	require.NoError(t, err)
	require.Equal(t, "June Block", status.PlanName)
	require.Len(t, status.Sessions, 4)

	byKey := make(map[analysis.SessionKey]SessionStatus)
	for _, ss := range status.Sessions {
		byKey[ss.Session.Key()] = ss
	}

	endurance := byKey[analysis.SessionKey{Week: 1, Index: 1}]
	require.Equal(t, StateCompleted, endurance.State)
	require.True(t, endurance.Completion.Automatic)
	require.Equal(t, int64(1), *endurance.Completion.ActivityID)
	require.InDelta(t, 100, endurance.Completion.Score, 1e-9)

	threshold := byKey[analysis.SessionKey{Week: 1, Index: 2}]
	require.Equal(t, StateCompleted, threshold.State)
	require.Equal(t, 1, threshold.Match.DateOffset)
	require.Equal(t, int64(2), *threshold.Completion.ActivityID)

	require.Equal(t, StateUpcoming, byKey[analysis.SessionKey{Week: 1, Index: 3}].State)

	legacy := byKey[analysis.SessionKey{Week: 2, Index: 1}]
	require.Equal(t, StateCompleted, legacy.State)
	require.False(t, legacy.Completion.Legacy)
	require.False(t, legacy.Completion.Automatic)

	sum := status.Summary
	require.Equal(t, 4, sum.Planned)
	require.Equal(t, 3, sum.Due)
	require.Equal(t, 3, sum.Completed)
	require.Equal(t, 2, sum.Automatic)
	require.Equal(t, 1, sum.Manual)
	require.InDelta(t, 100, sum.CompletionPct, 1e-9)

	// the merged ledger is persisted and replaying is stable
	stored, err := s.LoadCompletions()
	require.NoError(t, err)
	require.Len(t, stored, 3)

	again, err := c.PlanStatus()
	require.NoError(t, err)
	require.Equal(t, status.Summary, again.Summary)
}

func TestMarkCompleteAndMissed(t *testing.T) {
	s := openTestStore(t)
	importTestPlan(t, s)
	storeRide(t, s, 1, date(time.June, 3), 90, 150)
	storeRide(t, s, 2, date(time.June, 4), 45, 240)

	c := newTestCoach(t, s, date(time.June, 10))

	other := int64(2)
	rec, err := c.MarkComplete(analysis.SessionKey{Week: 1, Index: 1}, &other)
	require.NoError(t, err)
	require.True(t, rec.ManualOverride)
	require.Equal(t, other, *rec.ActivityID)

	rec, err = c.MarkMissed(analysis.SessionKey{Week: 1, Index: 3}, "sick")
	require.NoError(t, err)
	require.True(t, rec.Missed)
	require.False(t, rec.Completed)
	require.True(t, rec.MissedDate.Equal(date(time.June, 10)))

	_, err = c.MarkMissed(analysis.SessionKey{Week: 9, Index: 9}, "")
	require.ErrorIs(t, err, ErrSessionNotFound)

	// manual entries survive the next automatic pass
	status, err := c.PlanStatus()
	require.NoError(t, err)
	for _, ss := range status.Sessions {
		switch ss.Session.Key() {
		case analysis.SessionKey{Week: 1, Index: 1}:
			require.True(t, ss.Completion.ManualOverride)
		case analysis.SessionKey{Week: 1, Index: 3}:
			require.Equal(t, StateMissed, ss.State)
		}
	}
	require.Equal(t, 1, status.Summary.Overrides)
	require.Equal(t, 1, status.Summary.Missed)
}

func TestReadiness(t *testing.T) {
	s := openTestStore(t)
	now := date(time.June, 10)
	for i := 0; i < 40; i++ {
		storeRide(t, s, int64(i+1), now.AddDate(0, 0, -i), 60, 180)
	}

	c := newTestCoach(t, s, now)
	race, err := c.RaceDate()
	require.NoError(t, err)

	report, err := c.Readiness(race)
	require.NoError(t, err)
	require.Equal(t, 10, report.DaysToRace)
	require.Equal(t, analysis.PhasePreTaper, report.Taper.Phase)
	require.NotEqual(t, analysis.StatusInsufficientData, report.Status)
	require.Len(t, report.Factors, 5)
	require.Greater(t, report.Load.CTL, 0.0)
	require.NotEmpty(t, report.History)
}

func TestReadinessInsufficientData(t *testing.T) {
	s := openTestStore(t)
	now := date(time.June, 10)
	storeRide(t, s, 1, now, 60, 180)

	c := newTestCoach(t, s, now)
	report, err := c.Readiness(date(time.June, 20))
	require.NoError(t, err)
	require.Equal(t, analysis.StatusInsufficientData, report.Status)
	require.Zero(t, report.Score)
}

func TestLoadSeries(t *testing.T) {
	s := openTestStore(t)
	storeRide(t, s, 1, date(time.May, 25), 60, 250) // before the window
	storeRide(t, s, 2, date(time.June, 2), 60, 250)

	c := newTestCoach(t, s, date(time.June, 10))

	series, err := c.LoadSeries(date(time.June, 1), date(time.June, 3))
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.True(t, series[0].Date.Equal(date(time.June, 1)))
	require.Greater(t, series[0].CTL, 0.0, "warm-up activity should seed the first day")
	require.Zero(t, series[0].TSS)
	require.InDelta(t, 100, series[1].TSS, 1e-6)

	_, err = c.LoadSeries(date(time.June, 3), date(time.June, 1))
	require.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestMalformedActivityFailsAnalysis(t *testing.T) {
	s := openTestStore(t)
	importTestPlan(t, s)
	storeRide(t, s, 1, date(time.June, 3), 90, 180)

	local := date(time.June, 5).Add(7 * time.Hour)
	require.NoError(t, s.UpsertActivity(&store.Activity{
		ID:             2,
		Source:         store.SourceStrava,
		Name:           "Broken upload",
		Type:           "Ride",
		StartDate:      local,
		StartDateLocal: local,
		MovingTime:     3600,
		ElapsedTime:    3600,
		TSS:            floatPtr(-50),
	}))

	c := newTestCoach(t, s, date(time.June, 10))

	_, err := c.LoadSeries(date(time.June, 1), date(time.June, 7))
	require.ErrorIs(t, err, analysis.ErrInvalidInput)

	_, err = c.PlanStatus()
	require.ErrorIs(t, err, analysis.ErrInvalidInput)

	_, err = c.MarkComplete(analysis.SessionKey{Week: 1, Index: 2}, nil)
	require.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestRecentActivities(t *testing.T) {
	s := openTestStore(t)
	now := date(time.June, 10)
	for i := 0; i < 5; i++ {
		storeRide(t, s, int64(i+1), now.AddDate(0, 0, -i), 60, 200)
	}

	c := newTestCoach(t, s, now)
	recent, err := c.RecentActivities(30, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, int64(1), recent[0].ID)
	require.Equal(t, int64(3), recent[2].ID)
}

func TestGetDashboardData(t *testing.T) {
	s := openTestStore(t)
	now := date(time.June, 10)
	storeRide(t, s, 1, now, 60, 250)
	storeRide(t, s, 2, now.AddDate(0, 0, -3), 120, 200)
	storeRide(t, s, 3, now.AddDate(0, 0, -20), 60, 200)

	c := newTestCoach(t, s, now)
	data, err := c.GetDashboardData()
	require.NoError(t, err)

	require.Len(t, data.LoadHistory, DashboardLoadDays)
	require.True(t, data.LoadHistory[len(data.LoadHistory)-1].Date.Equal(now))
	require.Equal(t, data.LoadHistory[len(data.LoadHistory)-1], data.Load)
	require.NotEmpty(t, data.Form)

	require.Equal(t, 2, data.WeekCount)
	require.InDelta(t, 3.0, data.WeekHours, 1e-9)
	require.Len(t, data.RecentActivities, 3)
	require.InDelta(t, 100, data.RecentActivities[0].TSS, 1e-6)

	require.True(t, data.HasRace)
	require.Equal(t, "Gran Fondo", data.RaceName)
	require.Equal(t, 10, data.DaysToRace)
}
