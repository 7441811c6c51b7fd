package service

import (
	"errors"
	"fmt"
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/observability"
	"endurance-coach/internal/planfile"
	"endurance-coach/internal/store"
)

// SessionStatus is one planned session with its match and ledger state
type SessionStatus struct {
	Session       analysis.PlannedSession
	Match         analysis.MatchRecord
	Completion    analysis.CompletionRecord
	HasCompletion bool
	State         string
}

// PlanStatus is the adherence view of the active plan
type PlanStatus struct {
	PlanName string
	AsOf     time.Time
	Sessions []SessionStatus
	Summary  analysis.AdherenceSummary
}

// PlanStatus matches activities against the active plan, folds the matches
// into the persisted ledger and reports adherence. Returns store.ErrNoPlan
// when no plan is imported.
func (c *CoachService) PlanStatus() (*PlanStatus, error) {
	p := c.params()
	today := c.today()

	sessions, err := c.plans.ListPlannedSessions()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, store.ErrNoPlan
	}
	info, err := c.plans.ActivePlan()
	if err != nil {
		return nil, err
	}

	matches, err := c.matchSessions(sessions, p)
	if err != nil {
		return nil, err
	}

	ledger, err := c.ledger.LoadCompletions()
	if err != nil {
		return nil, fmt.Errorf("loading completions: %w", err)
	}
	merged := analysis.Merge(ledger, matches, p)
	if err := c.ledger.SaveCompletions(merged); err != nil {
		return nil, fmt.Errorf("saving completions: %w", err)
	}

	status := &PlanStatus{
		PlanName: info.Name,
		AsOf:     today,
		Sessions: make([]SessionStatus, 0, len(sessions)),
		Summary:  analysis.SummarizeAdherence(sessions, merged, today),
	}

	matched := 0
	for _, s := range sessions {
		m := matches[s.Key()]
		if m.Matched {
			matched++
		}
		rec, ok := merged[s.Key()]
		status.Sessions = append(status.Sessions, SessionStatus{
			Session:       s,
			Match:         m,
			Completion:    rec,
			HasCompletion: ok,
			State:         sessionState(s, rec, ok, today),
		})
	}

	observability.RecordMatches(matched, len(sessions)-matched)
	c.log.Debug("plan status computed",
		"sessions", len(sessions),
		"matched", matched,
		"quality_pct", status.Summary.QualityPct,
	)
	return status, nil
}

// matchSessions reads the activities spanning the plan and runs the matcher
func (c *CoachService) matchSessions(sessions []analysis.PlannedSession, p analysis.Params) (map[analysis.SessionKey]analysis.MatchRecord, error) {
	from, to := sessions[0].Date, sessions[0].Date
	for _, s := range sessions[1:] {
		if s.Date.Before(from) {
			from = s.Date
		}
		if s.Date.After(to) {
			to = s.Date
		}
	}

	activities, err := c.activities.ListActivitiesBetween(
		from.AddDate(0, 0, -p.MatchWindowDays),
		to.AddDate(0, 0, p.MatchWindowDays),
	)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	matches, err := analysis.MatchAll(sessions, activities, c.athlete.FTPPtr(), p)
	if err != nil {
		return nil, fmt.Errorf("matching sessions: %w", err)
	}
	return matches, nil
}

func sessionState(s analysis.PlannedSession, rec analysis.CompletionRecord, ok bool, today time.Time) string {
	switch {
	case ok && rec.Missed:
		return StateMissed
	case ok && rec.Completed:
		return StateCompleted
	case s.Date.After(today):
		return StateUpcoming
	default:
		return StatePending
	}
}

// MarkComplete records that the athlete did a session, optionally naming
// the activity. Picking an activity other than the automatic match is an
// override.
func (c *CoachService) MarkComplete(key analysis.SessionKey, activityID *int64) (analysis.CompletionRecord, error) {
	session, err := c.findSession(key)
	if err != nil {
		return analysis.CompletionRecord{}, err
	}

	p := c.params()
	matches, err := c.matchSessions([]analysis.PlannedSession{session}, p)
	if err != nil {
		return analysis.CompletionRecord{}, err
	}

	rec := analysis.MarkComplete(activityID, matches[key])
	if err := c.ledger.SaveCompletion(key, rec); err != nil {
		return analysis.CompletionRecord{}, fmt.Errorf("saving completion: %w", err)
	}
	c.log.Info("session marked complete", "session", key.String(), "override", rec.ManualOverride)
	return rec, nil
}

// MarkMissed records that the athlete skipped a session
func (c *CoachService) MarkMissed(key analysis.SessionKey, reason string) (analysis.CompletionRecord, error) {
	if _, err := c.findSession(key); err != nil {
		return analysis.CompletionRecord{}, err
	}

	rec := analysis.MarkMissed(reason, c.today())
	if err := c.ledger.SaveCompletion(key, rec); err != nil {
		return analysis.CompletionRecord{}, fmt.Errorf("saving completion: %w", err)
	}
	c.log.Info("session marked missed", "session", key.String(), "reason", reason)
	return rec, nil
}

func (c *CoachService) findSession(key analysis.SessionKey) (analysis.PlannedSession, error) {
	sessions, err := c.plans.ListPlannedSessions()
	if err != nil {
		return analysis.PlannedSession{}, err
	}
	for _, s := range sessions {
		if s.Key() == key {
			return s, nil
		}
	}
	return analysis.PlannedSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
}

// ImportPlan stores a parsed plan file as the active plan and seeds its
// ledger with the completions the file recorded
func ImportPlan(plans PlanImporter, ledger CompletionStore, res *planfile.Result) (*store.PlanInfo, error) {
	if res == nil {
		return nil, errors.New("no plan to import")
	}
	info, err := plans.ImportPlan(res.Plan)
	if err != nil {
		return nil, fmt.Errorf("importing plan: %w", err)
	}
	if len(res.Legacy) > 0 {
		if err := ledger.SaveCompletions(res.Legacy); err != nil {
			return nil, fmt.Errorf("saving recorded completions: %w", err)
		}
	}
	return info, nil
}
