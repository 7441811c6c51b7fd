package api

import (
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/config"
	"endurance-coach/internal/service"
)

type factorView struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

type loadView struct {
	Date string  `json:"date,omitempty"`
	TSS  float64 `json:"tss"`
	CTL  float64 `json:"ctl"`
	ATL  float64 `json:"atl"`
	TSB  float64 `json:"tsb"`
	Form string  `json:"form,omitempty"`
}

type recommendationView struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type taperView struct {
	Phase           string   `json:"phase"`
	Message         string   `json:"message"`
	Recommendations []string `json:"recommendations"`
}

type recoveryView struct {
	Score    float64 `json:"score"`
	Label    string  `json:"label"`
	AvgTSS   float64 `json:"avg_tss"`
	RestDays int     `json:"rest_days"`
}

type readinessView struct {
	Race                string               `json:"race,omitempty"`
	RaceDate            string               `json:"race_date"`
	DaysToRace          int                  `json:"days_to_race"`
	Status              string               `json:"status"`
	Score               float64              `json:"score"`
	Label               string               `json:"label"`
	Message             string               `json:"message,omitempty"`
	Factors             []factorView         `json:"factors"`
	Load                loadView             `json:"load"`
	PerformanceTrendPct float64              `json:"performance_trend_pct"`
	Recovery            recoveryView         `json:"recovery"`
	ConsistencyPct      float64              `json:"consistency_pct"`
	Recommendations     []recommendationView `json:"recommendations"`
	Taper               taperView            `json:"taper"`
	History             []loadView           `json:"history"`
}

func newReadinessView(race string, raceDate time.Time, r *analysis.ReadinessReport) readinessView {
	v := readinessView{
		Race:                race,
		RaceDate:            raceDate.Format(config.DateLayout),
		DaysToRace:          r.DaysToRace,
		Status:              string(r.Status),
		Score:               r.Score,
		Label:               r.Label,
		Message:             r.Message,
		Factors:             make([]factorView, 0, len(r.Factors)),
		PerformanceTrendPct: r.PerformanceTrendPct,
		ConsistencyPct:      r.ConsistencyPct,
		Recommendations:     make([]recommendationView, 0, len(r.Recommendations)),
		Load: loadView{
			CTL:  r.Load.CTL,
			ATL:  r.Load.ATL,
			TSB:  r.Load.TSB,
			Form: r.Load.Form,
		},
		Recovery: recoveryView{
			Score:    r.Recovery.Score,
			Label:    r.Recovery.Label,
			AvgTSS:   r.Recovery.AvgTSS,
			RestDays: r.Recovery.RestDays,
		},
		Taper: taperView{
			Phase:           string(r.Taper.Phase),
			Message:         r.Taper.Message,
			Recommendations: r.Taper.Recommendations,
		},
		History: newLoadViews(r.History),
	}
	for _, f := range r.Factors {
		v.Factors = append(v.Factors, factorView(f))
	}
	for _, rec := range r.Recommendations {
		v.Recommendations = append(v.Recommendations, recommendationView(rec))
	}
	return v
}

func newLoadViews(series []analysis.DailyLoadPoint) []loadView {
	out := make([]loadView, 0, len(series))
	for _, p := range series {
		out = append(out, loadView{
			Date: p.Date.Format(config.DateLayout),
			TSS:  p.TSS,
			CTL:  p.CTL,
			ATL:  p.ATL,
			TSB:  p.TSB,
			Form: analysis.FormDescription(p.TSB),
		})
	}
	return out
}

type completionView struct {
	Completed      bool    `json:"completed"`
	Automatic      bool    `json:"automatic"`
	ManualOverride bool    `json:"manual_override"`
	Missed         bool    `json:"missed"`
	Legacy         bool    `json:"legacy,omitempty"`
	MissedReason   string  `json:"missed_reason,omitempty"`
	MissedDate     string  `json:"missed_date,omitempty"`
	Score          float64 `json:"score"`
	ActivityID     *int64  `json:"activity_id,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

func newCompletionView(rec analysis.CompletionRecord) completionView {
	v := completionView{
		Completed:      rec.Completed,
		Automatic:      rec.Automatic,
		ManualOverride: rec.ManualOverride,
		Missed:         rec.Missed,
		Legacy:         rec.Legacy,
		MissedReason:   rec.MissedReason,
		Score:          rec.Score,
		ActivityID:     rec.ActivityID,
		Reason:         rec.Reason,
	}
	if rec.MissedDate != nil {
		v.MissedDate = rec.MissedDate.Format(config.DateLayout)
	}
	return v
}

type matchView struct {
	Matched    bool    `json:"matched"`
	ActivityID *int64  `json:"activity_id,omitempty"`
	Score      float64 `json:"score"`
	DateOffset int     `json:"date_offset"`
	Reason     string  `json:"reason,omitempty"`
}

type sessionView struct {
	Key             string          `json:"key"`
	Week            int             `json:"week"`
	Index           int             `json:"index"`
	Date            string          `json:"date"`
	Type            string          `json:"type"`
	DurationMinutes int             `json:"duration_minutes"`
	Description     string          `json:"description,omitempty"`
	State           string          `json:"state"`
	Match           matchView       `json:"match"`
	Completion      *completionView `json:"completion,omitempty"`
}

type summaryView struct {
	Planned            int     `json:"planned"`
	Due                int     `json:"due"`
	Completed          int     `json:"completed"`
	Automatic          int     `json:"automatic"`
	Manual             int     `json:"manual"`
	Overrides          int     `json:"overrides"`
	Missed             int     `json:"missed"`
	Pending            int     `json:"pending"`
	WeightedCompletion float64 `json:"weighted_completion"`
	QualityPct         float64 `json:"quality_pct"`
	CompletionPct      float64 `json:"completion_pct"`
}

type planView struct {
	Plan     string        `json:"plan"`
	AsOf     string        `json:"as_of"`
	Summary  summaryView   `json:"summary"`
	Sessions []sessionView `json:"sessions"`
}

func newPlanView(status *service.PlanStatus) planView {
	v := planView{
		Plan:     status.PlanName,
		AsOf:     status.AsOf.Format(config.DateLayout),
		Summary:  summaryView(status.Summary),
		Sessions: make([]sessionView, 0, len(status.Sessions)),
	}
	for _, ss := range status.Sessions {
		s := ss.Session
		sv := sessionView{
			Key:             s.Key().String(),
			Week:            s.Week,
			Index:           s.Index,
			Date:            s.Date.Format(config.DateLayout),
			Type:            string(s.Type),
			DurationMinutes: s.DurationMinutes,
			Description:     s.Description,
			State:           ss.State,
			Match: matchView{
				Matched:    ss.Match.Matched,
				Score:      ss.Match.Score,
				DateOffset: ss.Match.DateOffset,
				Reason:     ss.Match.Reason,
			},
		}
		if ss.Match.Activity != nil {
			id := ss.Match.Activity.ID
			sv.Match.ActivityID = &id
		}
		if ss.HasCompletion {
			c := newCompletionView(ss.Completion)
			sv.Completion = &c
		}
		v.Sessions = append(v.Sessions, sv)
	}
	return v
}
