package service

import (
	"errors"
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/config"
)

// ActivitySummary is an activity with the stress it contributed
type ActivitySummary struct {
	Activity analysis.Activity
	TSS      float64
}

// DashboardData contains all data for the dashboard view
type DashboardData struct {
	AsOf time.Time

	Load        analysis.DailyLoadPoint
	Form        string
	LoadHistory []analysis.DailyLoadPoint

	// Last 7 days including today
	WeekCount int
	WeekHours float64
	WeekTSS   float64

	RecentActivities []ActivitySummary

	RaceName   string
	RaceDate   time.Time
	DaysToRace int
	HasRace    bool
}

// GetDashboardData gathers the load chart, weekly volume and recent
// activities in one pass
func (c *CoachService) GetDashboardData() (*DashboardData, error) {
	p := c.params()
	today := c.today()
	ftp := c.athlete.FTPPtr()

	history, err := c.LoadSeries(today.AddDate(0, 0, -(DashboardLoadDays-1)), today)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		AsOf:        today,
		LoadHistory: history,
		Load:        analysis.CurrentLoad(history),
	}
	data.Form = analysis.FormDescription(data.Load.TSB)

	for _, pt := range history[max(0, len(history)-7):] {
		data.WeekTSS += pt.TSS
	}

	week, err := c.activities.ListActivitiesBetween(today.AddDate(0, 0, -6), today)
	if err != nil {
		return nil, err
	}
	data.WeekCount = len(week)
	for _, a := range week {
		data.WeekHours += a.Hours()
	}

	recent, err := c.RecentActivities(DashboardLoadDays, RecentActivitiesLimit)
	if err != nil {
		return nil, err
	}
	for _, a := range recent {
		data.RecentActivities = append(data.RecentActivities, ActivitySummary{
			Activity: a,
			TSS:      analysis.ActivityTSS(a, ftp, p),
		})
	}

	race, err := c.RaceDate()
	switch {
	case err == nil:
		data.HasRace = true
		data.RaceName = c.RaceName()
		data.RaceDate = race
		data.DaysToRace = analysis.DaysBetween(today, race)
	case !errors.Is(err, config.ErrNoRace):
		return nil, err
	}

	return data, nil
}
