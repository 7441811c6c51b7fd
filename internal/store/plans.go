package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"endurance-coach/internal/analysis"
)

const dateLayout = "2006-01-02"

// ImportPlan stores a training plan and makes it the active one.
// Previously imported plans are kept but deactivated.
func (s *Store) ImportPlan(plan analysis.Plan) (*PlanInfo, error) {
	sessions := plan.Sessions()
	info := &PlanInfo{
		ID:         uuid.NewString(),
		Name:       plan.Name,
		Active:     true,
		ImportedAt: time.Now().UTC(),
		Sessions:   len(sessions),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE plans SET active = 0 WHERE active = 1`); err != nil {
		return nil, fmt.Errorf("deactivating plans: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO plans (id, name, active, imported_at) VALUES (?, ?, 1, ?)
	`, info.ID, info.Name, info.ImportedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting plan: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO planned_sessions (plan_id, week, idx, date, type, duration_minutes, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing session insert: %w", err)
	}
	defer stmt.Close()

	for _, ps := range sessions {
		if _, err := stmt.Exec(info.ID, ps.Week, ps.Index, ps.Date.Format(dateLayout),
			string(ps.Type), ps.DurationMinutes, ps.Description); err != nil {
			return nil, fmt.Errorf("inserting session %s: %w", ps.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing plan: %w", err)
	}
	return info, nil
}

// ActivePlan returns the currently active plan
func (s *Store) ActivePlan() (*PlanInfo, error) {
	var info PlanInfo
	var importedAt string
	err := s.db.QueryRow(`
		SELECT p.id, p.name, p.imported_at,
			(SELECT COUNT(*) FROM planned_sessions ps WHERE ps.plan_id = p.id)
		FROM plans p
		WHERE p.active = 1
	`).Scan(&info.ID, &info.Name, &importedAt, &info.Sessions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPlan
	}
	if err != nil {
		return nil, err
	}

	info.Active = true
	info.ImportedAt, err = time.Parse(time.RFC3339, importedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing imported_at %q: %w", importedAt, err)
	}
	return &info, nil
}

// ListPlannedSessions returns the sessions of the active plan in week/index order
func (s *Store) ListPlannedSessions() ([]analysis.PlannedSession, error) {
	plan, err := s.ActivePlan()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT week, idx, date, type, duration_minutes, description
		FROM planned_sessions
		WHERE plan_id = ?
		ORDER BY week, idx
	`, plan.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []analysis.PlannedSession
	for rows.Next() {
		var ps analysis.PlannedSession
		var date, sessionType string
		var description sql.NullString
		if err := rows.Scan(&ps.Week, &ps.Index, &date, &sessionType, &ps.DurationMinutes, &description); err != nil {
			return nil, err
		}
		ps.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing session date %q: %w", date, err)
		}
		ps.Type = analysis.SessionType(sessionType)
		ps.Description = description.String
		sessions = append(sessions, ps)
	}
	return sessions, rows.Err()
}
