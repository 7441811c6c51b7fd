package analysis

import (
	"sort"
	"time"
)

const (
	reasonManuallyMarked = "Manually marked as complete"
	reasonOverride       = "Manually matched to a different activity"

	manualWeight   = 1.0
	overrideWeight = 0.7
)

// Merge reconciles the stored completion ledger with fresh automatic matches.
// Existing entries are never overwritten; legacy entries are upgraded to full
// records. Sessions without an entry get an automatic record when matched.
// The inputs are not modified.
func Merge(ledger map[SessionKey]CompletionRecord, matches map[SessionKey]MatchRecord, p Params) map[SessionKey]CompletionRecord {
	p = p.withDefaults()
	merged := make(map[SessionKey]CompletionRecord, len(ledger)+len(matches))

	for key, rec := range ledger {
		if rec.Legacy {
			rec = upgradeLegacy(matches[key])
		}
		merged[key] = rec
	}

	for key, m := range matches {
		if _, exists := merged[key]; exists {
			continue
		}
		if !m.Matched || m.Score < p.MatchThreshold {
			continue
		}
		merged[key] = automaticRecord(m)
	}

	return merged
}

func automaticRecord(m MatchRecord) CompletionRecord {
	rec := CompletionRecord{
		Completed: true,
		Automatic: true,
		Score:     m.Score,
		Reason:    m.Reason,
	}
	if m.Activity != nil {
		id := m.Activity.ID
		rec.ActivityID = &id
	}
	return rec
}

// upgradeLegacy turns a bare "done" entry into a manual record,
// borrowing the activity and score of the automatic match when there is one.
func upgradeLegacy(m MatchRecord) CompletionRecord {
	rec := CompletionRecord{Completed: true}
	if m.Matched && m.Activity != nil {
		id := m.Activity.ID
		rec.ActivityID = &id
		rec.Score = m.Score
		rec.Reason = m.Reason
		return rec
	}
	rec.Score = 100
	rec.Reason = reasonManuallyMarked
	return rec
}

// MarkComplete builds a manual completion record. When the athlete picks an
// activity other than the automatically matched one the record is an override.
func MarkComplete(activityID *int64, auto MatchRecord) CompletionRecord {
	rec := CompletionRecord{
		Completed: true,
		Score:     100,
		Reason:    reasonManuallyMarked,
	}
	if activityID == nil {
		return rec
	}
	id := *activityID
	rec.ActivityID = &id

	if auto.Matched && auto.Activity != nil && auto.Activity.ID != id {
		rec.ManualOverride = true
		rec.Reason = reasonOverride
		return rec
	}
	if auto.Activity != nil && auto.Activity.ID == id {
		rec.Score = auto.Score
	}
	return rec
}

// MarkMissed builds a record for a session the athlete skipped
func MarkMissed(reason string, date time.Time) CompletionRecord {
	d := calendarDay(date)
	return CompletionRecord{
		Missed:       true,
		MissedReason: reason,
		MissedDate:   &d,
		Reason:       "Marked as missed",
	}
}

// CompletionWeight is the quality credit a ledger entry earns:
// automatic score/100, manual 1.0, manual override 0.7, missed 0.
func CompletionWeight(rec CompletionRecord) float64 {
	switch {
	case rec.Missed || !rec.Completed:
		return 0
	case rec.Automatic:
		return clamp(rec.Score/100, 0, 1)
	case rec.ManualOverride:
		return overrideWeight
	default:
		return manualWeight
	}
}

// AdherenceSummary aggregates the ledger for plan-alignment reporting
type AdherenceSummary struct {
	Planned   int
	Due       int // sessions dated on or before asOf
	Completed int
	Automatic int
	Manual    int
	Overrides int
	Missed    int
	Pending   int // due sessions with no ledger entry

	// WeightedCompletion is the sum of CompletionWeight over due sessions
	WeightedCompletion float64
	// QualityPct is WeightedCompletion as a percentage of due sessions
	QualityPct float64
	// CompletionPct is completed due sessions as a percentage of due sessions
	CompletionPct float64
}

// SummarizeAdherence reports plan adherence up to and including asOf
func SummarizeAdherence(sessions []PlannedSession, ledger map[SessionKey]CompletionRecord, asOf time.Time) AdherenceSummary {
	var sum AdherenceSummary
	sum.Planned = len(sessions)
	today := calendarDay(asOf)

	completedDue := 0
	for _, s := range sessions {
		rec, ok := ledger[s.Key()]
		due := !calendarDay(s.Date).After(today)

		if ok && rec.Completed && !rec.Missed {
			sum.Completed++
			switch {
			case rec.Automatic:
				sum.Automatic++
			case rec.ManualOverride:
				sum.Overrides++
			default:
				sum.Manual++
			}
		}
		if ok && rec.Missed {
			sum.Missed++
		}

		if !due {
			continue
		}
		sum.Due++
		if !ok {
			sum.Pending++
			continue
		}
		if rec.Completed && !rec.Missed {
			completedDue++
		}
		sum.WeightedCompletion += CompletionWeight(rec)
	}

	if sum.Due > 0 {
		sum.QualityPct = sum.WeightedCompletion / float64(sum.Due) * 100
		sum.CompletionPct = float64(completedDue) / float64(sum.Due) * 100
	}
	return sum
}

// SortedKeys returns the ledger keys in week then index order
func SortedKeys[V any](m map[SessionKey]V) []SessionKey {
	keys := make([]SessionKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Week != keys[j].Week {
			return keys[i].Week < keys[j].Week
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}
