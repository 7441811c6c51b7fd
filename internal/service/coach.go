package service

import (
	"errors"
	"fmt"
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/config"
	"endurance-coach/internal/logger"
	"endurance-coach/internal/observability"
)

// ErrSessionNotFound is returned for a session key that is not in the plan
var ErrSessionNotFound = errors.New("session not found in plan")

// CoachService answers the athlete-facing questions: how ready am I, how well
// am I following the plan, what does my training load look like
type CoachService struct {
	activities ActivitySource
	plans      PlanSource
	ledger     CompletionStore
	athlete    config.AthleteConfig
	race       config.RaceConfig
	log        *logger.Logger
	now        func() time.Time
}

// NewCoachService creates a coach service over the given sources
func NewCoachService(activities ActivitySource, plans PlanSource, ledger CompletionStore, cfg *config.Config, log *logger.Logger) *CoachService {
	return &CoachService{
		activities: activities,
		plans:      plans,
		ledger:     ledger,
		athlete:    cfg.Athlete,
		race:       cfg.Race,
		log:        log,
		now:        time.Now,
	}
}

// RaceName returns the configured target event name
func (c *CoachService) RaceName() string {
	return c.race.Name
}

// RaceDate returns the configured race date or config.ErrNoRace
func (c *CoachService) RaceDate() (time.Time, error) {
	return c.race.RaceDate()
}

// today is the athlete's current calendar date
func (c *CoachService) today() time.Time {
	y, m, d := c.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c *CoachService) params() analysis.Params {
	return c.athlete.Params()
}

// Readiness predicts race readiness for raceDate as of today
func (c *CoachService) Readiness(raceDate time.Time) (*analysis.ReadinessReport, error) {
	p := c.params()
	today := c.today()

	anchor := today
	if raceDate.Before(anchor) {
		anchor = raceDate
	}
	from := anchor.AddDate(0, 0, -(p.HistoryDays + LoadWarmupFactor*p.ChronicDays))

	activities, err := c.activities.ListActivitiesBetween(from, raceDate)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	report, err := analysis.PredictReadiness(analysis.ReadinessRequest{
		Activities: activities,
		FTP:        c.athlete.FTPPtr(),
		RaceDate:   raceDate,
		AsOf:       today,
	}, p)
	if err != nil {
		return nil, err
	}

	observability.RecordReadiness(string(report.Status), report.Score)
	c.log.Debug("readiness computed",
		"race_date", raceDate.Format(config.DateLayout),
		"activities", len(activities),
		"status", report.Status,
		"score", report.Score,
	)
	return report, nil
}

// LoadSeries returns the daily CTL/ATL/TSB series for [from, to]. Activities
// before from are read so the averages are warmed up on the first day.
func (c *CoachService) LoadSeries(from, to time.Time) ([]analysis.DailyLoadPoint, error) {
	p := c.params()
	if to.Before(from) {
		return nil, &analysis.ValidationError{Field: "to", Reason: "before from"}
	}

	warmStart := from.AddDate(0, 0, -LoadWarmupFactor*p.ChronicDays)
	activities, err := c.activities.ListActivitiesBetween(warmStart, to)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	series, err := analysis.BuildDailySeries(activities, c.athlete.FTPPtr(), warmStart, to, p)
	if err != nil {
		return nil, err
	}

	first := analysis.DaysBetween(warmStart, from)
	if first < 0 || first > len(series) {
		return nil, nil
	}
	return series[first:], nil
}

// CurrentLoad returns today's training load
func (c *CoachService) CurrentLoad() (analysis.DailyLoadPoint, error) {
	today := c.today()
	series, err := c.LoadSeries(today, today)
	if err != nil {
		return analysis.DailyLoadPoint{}, err
	}
	return analysis.CurrentLoad(series), nil
}

// RecentActivities returns the newest activities of the last lookback days,
// newest first
func (c *CoachService) RecentActivities(lookback, limit int) ([]analysis.Activity, error) {
	today := c.today()
	activities, err := c.activities.ListActivitiesBetween(today.AddDate(0, 0, -lookback), today)
	if err != nil {
		return nil, err
	}

	out := make([]analysis.Activity, 0, limit)
	for i := len(activities) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, activities[i])
	}
	return out, nil
}
