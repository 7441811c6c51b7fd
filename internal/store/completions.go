package store

import (
	"database/sql"
	"fmt"
	"time"

	"endurance-coach/internal/analysis"
)

// LoadCompletions returns the completion ledger of the active plan
func (s *Store) LoadCompletions() (map[analysis.SessionKey]analysis.CompletionRecord, error) {
	plan, err := s.ActivePlan()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT week, idx, completed, automatic, manual_override, missed, legacy,
			missed_reason, missed_date, score, activity_id, reason
		FROM completions
		WHERE plan_id = ?
	`, plan.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ledger := make(map[analysis.SessionKey]analysis.CompletionRecord)
	for rows.Next() {
		var key analysis.SessionKey
		var rec analysis.CompletionRecord
		var completed, automatic, override, missed, legacy int
		var missedReason, missedDate, reason sql.NullString
		var activityID sql.NullInt64

		if err := rows.Scan(&key.Week, &key.Index, &completed, &automatic, &override, &missed, &legacy,
			&missedReason, &missedDate, &rec.Score, &activityID, &reason); err != nil {
			return nil, err
		}

		rec.Completed = completed == 1
		rec.Automatic = automatic == 1
		rec.ManualOverride = override == 1
		rec.Missed = missed == 1
		rec.Legacy = legacy == 1
		rec.MissedReason = missedReason.String
		rec.Reason = reason.String
		if missedDate.Valid {
			d, err := time.Parse(dateLayout, missedDate.String)
			if err != nil {
				return nil, fmt.Errorf("parsing missed_date %q: %w", missedDate.String, err)
			}
			rec.MissedDate = &d
		}
		if activityID.Valid {
			id := activityID.Int64
			rec.ActivityID = &id
		}
		ledger[key] = rec
	}
	return ledger, rows.Err()
}

// SaveCompletions replaces the completion ledger of the active plan
func (s *Store) SaveCompletions(ledger map[analysis.SessionKey]analysis.CompletionRecord) error {
	plan, err := s.ActivePlan()
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM completions WHERE plan_id = ?`, plan.ID); err != nil {
		return fmt.Errorf("clearing completions: %w", err)
	}
	for _, key := range analysis.SortedKeys(ledger) {
		if err := upsertCompletion(tx, plan.ID, key, ledger[key]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveCompletion writes a single ledger entry of the active plan
func (s *Store) SaveCompletion(key analysis.SessionKey, rec analysis.CompletionRecord) error {
	plan, err := s.ActivePlan()
	if err != nil {
		return err
	}
	return upsertCompletion(s.db, plan.ID, key, rec)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertCompletion(db execer, planID string, key analysis.SessionKey, rec analysis.CompletionRecord) error {
	var missedDate *string
	if rec.MissedDate != nil {
		d := rec.MissedDate.Format(dateLayout)
		missedDate = &d
	}

	_, err := db.Exec(`
		INSERT INTO completions (plan_id, week, idx, completed, automatic, manual_override, missed, legacy,
			missed_reason, missed_date, score, activity_id, reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(plan_id, week, idx) DO UPDATE SET
			completed = excluded.completed,
			automatic = excluded.automatic,
			manual_override = excluded.manual_override,
			missed = excluded.missed,
			legacy = excluded.legacy,
			missed_reason = excluded.missed_reason,
			missed_date = excluded.missed_date,
			score = excluded.score,
			activity_id = excluded.activity_id,
			reason = excluded.reason,
			updated_at = CURRENT_TIMESTAMP
	`, planID, key.Week, key.Index,
		boolToInt(rec.Completed), boolToInt(rec.Automatic), boolToInt(rec.ManualOverride),
		boolToInt(rec.Missed), boolToInt(rec.Legacy),
		nullString(rec.MissedReason), missedDate, rec.Score, rec.ActivityID, nullString(rec.Reason))
	if err != nil {
		return fmt.Errorf("saving completion %s: %w", key, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
