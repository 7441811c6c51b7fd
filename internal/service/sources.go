package service

import (
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/store"
)

// ActivitySource supplies completed activities whose local start date falls
// within [from, to], oldest first
type ActivitySource interface {
	ListActivitiesBetween(from, to time.Time) ([]analysis.Activity, error)
}

// PlanSource supplies the active plan and its sessions
type PlanSource interface {
	ActivePlan() (*store.PlanInfo, error)
	ListPlannedSessions() ([]analysis.PlannedSession, error)
}

// CompletionStore persists the completion ledger of the active plan
type CompletionStore interface {
	LoadCompletions() (map[analysis.SessionKey]analysis.CompletionRecord, error)
	SaveCompletions(ledger map[analysis.SessionKey]analysis.CompletionRecord) error
	SaveCompletion(key analysis.SessionKey, rec analysis.CompletionRecord) error
}

// PlanImporter stores a new active plan
type PlanImporter interface {
	ImportPlan(plan analysis.Plan) (*store.PlanInfo, error)
}

var (
	_ ActivitySource  = (*store.Store)(nil)
	_ PlanSource      = (*store.Store)(nil)
	_ CompletionStore = (*store.Store)(nil)
	_ PlanImporter    = (*store.Store)(nil)
)
