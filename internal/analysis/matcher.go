package analysis

import (
	"fmt"
	"time"
)

const (
	reasonNoActivity = "No activity found within ±%d days"
	reasonNoMatch    = "Activity found but does not match session requirements"
)

// activityIndex groups activities by calendar date, keeping input order within a day
type activityIndex map[string][]Activity

func indexByDay(activities []Activity) activityIndex {
	idx := make(activityIndex)
	for _, a := range activities {
		key := dayKey(calendarDay(a.Date))
		idx[key] = append(idx[key], a)
	}
	return idx
}

// searchOffsets returns 0, -1, +1, -2, +2, ... up to window days
func searchOffsets(window int) []int {
	offsets := []int{0}
	for d := 1; d <= window; d++ {
		offsets = append(offsets, -d, d)
	}
	return offsets
}

// candidates returns the first non-empty day around date and its offset
func (idx activityIndex) candidates(date time.Time, window int) ([]Activity, int, bool) {
	day := calendarDay(date)
	for _, off := range searchOffsets(window) {
		pool := idx[dayKey(day.AddDate(0, 0, off))]
		if len(pool) > 0 {
			return pool, off, true
		}
	}
	return nil, 0, false
}

// MatchAll finds the best activity for every planned session. Malformed
// sessions, activities or FTP fail with a *ValidationError.
func MatchAll(sessions []PlannedSession, activities []Activity, ftp *float64, p Params) (map[SessionKey]MatchRecord, error) {
	if err := validateMatchInput(activities, ftp); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if err := ValidateSession(s); err != nil {
			return nil, err
		}
	}
	p = p.withDefaults()
	idx := indexByDay(activities)

	records := make(map[SessionKey]MatchRecord, len(sessions))
	for _, s := range sessions {
		records[s.Key()] = matchIndexed(s, idx, ftp, p)
	}
	return records, nil
}

// MatchSession finds the best activity for a single planned session
func MatchSession(s PlannedSession, activities []Activity, ftp *float64, p Params) (MatchRecord, error) {
	if err := ValidateSession(s); err != nil {
		return MatchRecord{}, err
	}
	if err := validateMatchInput(activities, ftp); err != nil {
		return MatchRecord{}, err
	}
	p = p.withDefaults()
	return matchIndexed(s, indexByDay(activities), ftp, p), nil
}

func validateMatchInput(activities []Activity, ftp *float64) error {
	if err := ValidateFTP(ftp); err != nil {
		return err
	}
	return ValidateActivities(activities)
}

func matchIndexed(s PlannedSession, idx activityIndex, ftp *float64, p Params) MatchRecord {
	rec := MatchRecord{Key: s.Key()}

	pool, offset, ok := idx.candidates(s.Date, p.MatchWindowDays)
	if !ok {
		rec.Reason = fmt.Sprintf(reasonNoActivity, p.MatchWindowDays)
		return rec
	}

	var (
		best      Activity
		bestScore = -1.0
		bestBreak ScoreBreakdown
	)
	for _, a := range pool {
		b := ScoreSession(s, a, ftp, p)
		// strict comparison keeps the first candidate on ties
		if score := b.Total(); score > bestScore {
			best, bestScore, bestBreak = a, score, b
		}
	}

	rec.Activity = &best
	rec.Score = bestScore
	rec.Breakdown = bestBreak
	rec.DateOffset = offset

	if bestScore >= p.MatchThreshold {
		rec.Matched = true
		rec.Reason = matchReason(bestScore)
		if suffix := offsetDescription(offset); suffix != "" {
			rec.Reason += " " + suffix
		}
		return rec
	}

	rec.Reason = reasonNoMatch
	return rec
}

// matchReason describes a successful match by score band
func matchReason(score float64) string {
	switch {
	case score >= 90:
		return "Excellent match - activity closely follows the planned session"
	case score >= 75:
		return "Good match - activity covers the main session goals"
	case score >= 60:
		return "Fair match - activity partially follows the plan"
	default:
		return "Partial match - activity loosely resembles the plan"
	}
}

// offsetDescription renders a day offset, e.g. "(done 1 day later)"
func offsetDescription(offset int) string {
	if offset == 0 {
		return ""
	}
	n := offset
	when := "later"
	if offset < 0 {
		n = -offset
		when = "earlier"
	}
	unit := "days"
	if n == 1 {
		unit = "day"
	}
	return fmt.Sprintf("(done %d %s %s)", n, unit, when)
}
