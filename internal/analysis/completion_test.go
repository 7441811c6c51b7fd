package analysis

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func matched(key SessionKey, activityID int64, score float64) MatchRecord {
	a := ride(activityID, day(0), 60)
	return MatchRecord{Key: key, Matched: true, Activity: &a, Score: score, Reason: matchReason(score)}
}

func TestMergeAddsAutomaticMatches(t *testing.T) {
	k1, k2 := SessionKey{1, 1}, SessionKey{1, 2}
	matches := map[SessionKey]MatchRecord{
		k1: matched(k1, 11, 92),
		k2: {Key: k2, Reason: reasonNoMatch, Score: 30},
	}

	merged := Merge(nil, matches, DefaultParams())

	rec, ok := merged[k1]
	if !ok {
		t.Fatal("matched session missing from ledger")
	}
	if !rec.Completed || !rec.Automatic || rec.Score != 92 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ActivityID == nil || *rec.ActivityID != 11 {
		t.Errorf("ActivityID = %v, want 11", rec.ActivityID)
	}
	if _, ok := merged[k2]; ok {
		t.Error("unmatched session should not be added")
	}
}

func TestMergeKeepsExistingEntries(t *testing.T) {
	k := SessionKey{2, 1}
	manual := MarkComplete(nil, MatchRecord{})
	missed := MarkMissed("sick", day(3))
	ledger := map[SessionKey]CompletionRecord{
		k:                   manual,
		{Week: 2, Index: 2}: missed,
	}
	matches := map[SessionKey]MatchRecord{
		k:                   matched(k, 5, 80),
		{Week: 2, Index: 2}: matched(SessionKey{2, 2}, 6, 99),
	}

	merged := Merge(ledger, matches, DefaultParams())

	if !reflect.DeepEqual(merged[k], manual) {
		t.Errorf("manual entry overwritten: %+v", merged[k])
	}
	if got := merged[SessionKey{2, 2}]; !got.Missed || got.Completed {
		t.Errorf("missed entry overwritten: %+v", got)
	}
}

func TestMergeUpgradesLegacy(t *testing.T) {
	k1, k2 := SessionKey{1, 1}, SessionKey{1, 2}
	ledger := map[SessionKey]CompletionRecord{
		k1: {Completed: true, Legacy: true},
		k2: {Completed: true, Legacy: true},
	}
	matches := map[SessionKey]MatchRecord{
		k1: matched(k1, 21, 77),
	}

	merged := Merge(ledger, matches, DefaultParams())

	withMatch := merged[k1]
	if withMatch.Legacy || withMatch.Automatic || !withMatch.Completed {
		t.Errorf("legacy with match not upgraded: %+v", withMatch)
	}
	if withMatch.ActivityID == nil || *withMatch.ActivityID != 21 || withMatch.Score != 77 {
		t.Errorf("legacy with match lost match details: %+v", withMatch)
	}

	bare := merged[k2]
	if bare.Legacy || bare.Score != 100 || bare.Reason != "Manually marked as complete" {
		t.Errorf("bare legacy not upgraded: %+v", bare)
	}

	if !ledger[k1].Legacy {
		t.Error("input ledger was mutated")
	}
}

func TestMergeIdempotent(t *testing.T) {
	k1, k2, k3 := SessionKey{1, 1}, SessionKey{1, 2}, SessionKey{1, 3}
	ledger := map[SessionKey]CompletionRecord{
		k2: {Completed: true, Legacy: true},
	}
	matches := map[SessionKey]MatchRecord{
		k1: matched(k1, 1, 88),
		k2: matched(k2, 2, 65),
		k3: {Key: k3, Reason: reasonNoMatch},
	}

	once := Merge(ledger, matches, DefaultParams())
	twice := Merge(once, matches, DefaultParams())

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent:\n once: %+v\ntwice: %+v", once, twice)
	}
}

func TestMarkComplete(t *testing.T) {
	k := SessionKey{1, 1}
	auto := matched(k, 10, 84)

	t.Run("no activity", func(t *testing.T) {
		rec := MarkComplete(nil, auto)
		if rec.ManualOverride || rec.ActivityID != nil || rec.Score != 100 {
			t.Errorf("unexpected record %+v", rec)
		}
	})

	t.Run("same activity as automatic match", func(t *testing.T) {
		id := int64(10)
		rec := MarkComplete(&id, auto)
		if rec.ManualOverride {
			t.Error("should not be an override")
		}
		if rec.Score != 84 {
			t.Errorf("Score = %v, want automatic score 84", rec.Score)
		}
	})

	t.Run("different activity", func(t *testing.T) {
		id := int64(99)
		rec := MarkComplete(&id, auto)
		if !rec.ManualOverride {
			t.Error("expected override")
		}
		if rec.Reason != "Manually matched to a different activity" {
			t.Errorf("Reason = %q", rec.Reason)
		}
		if CompletionWeight(rec) != 0.7 {
			t.Errorf("weight = %v, want 0.7", CompletionWeight(rec))
		}
	})
}

func TestMarkMissedExcludesCompleted(t *testing.T) {
	rec := MarkMissed("travel", day(4).Add(15*time.Hour))
	if rec.Completed || !rec.Missed {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.MissedDate == nil || !rec.MissedDate.Equal(day(4)) {
		t.Errorf("MissedDate = %v, want %v", rec.MissedDate, day(4))
	}
	if CompletionWeight(rec) != 0 {
		t.Error("missed session should have zero weight")
	}
}

func TestCompletionWeight(t *testing.T) {
	tests := []struct {
		name string
		rec  CompletionRecord
		want float64
	}{
		{"automatic", CompletionRecord{Completed: true, Automatic: true, Score: 80}, 0.8},
		{"manual", CompletionRecord{Completed: true, Score: 100}, 1.0},
		{"override", CompletionRecord{Completed: true, ManualOverride: true}, 0.7},
		{"missed", CompletionRecord{Missed: true}, 0},
		{"empty", CompletionRecord{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionWeight(tt.rec); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CompletionWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarizeAdherence(t *testing.T) {
	sessions := []PlannedSession{
		session(1, 1, day(0), SessionEndurance, 60),
		session(1, 2, day(1), SessionTempo, 60),
		session(1, 3, day(2), SessionRecovery, 30),
		session(1, 4, day(3), SessionThreshold, 60),
		session(2, 1, day(10), SessionEndurance, 90),
	}
	ledger := map[SessionKey]CompletionRecord{
		{Week: 1, Index: 1}: {Completed: true, Automatic: true, Score: 80},
		{Week: 1, Index: 2}: {Completed: true, Score: 100},
		{Week: 1, Index: 3}: MarkMissed("sick", day(2)),
	}

	sum := SummarizeAdherence(sessions, ledger, day(3))

	if sum.Planned != 5 || sum.Due != 4 {
		t.Errorf("Planned/Due = %d/%d, want 5/4", sum.Planned, sum.Due)
	}
	if sum.Completed != 2 || sum.Automatic != 1 || sum.Manual != 1 {
		t.Errorf("Completed/Automatic/Manual = %d/%d/%d", sum.Completed, sum.Automatic, sum.Manual)
	}
	if sum.Missed != 1 || sum.Pending != 1 {
		t.Errorf("Missed/Pending = %d/%d, want 1/1", sum.Missed, sum.Pending)
	}
	if math.Abs(sum.QualityPct-45) > 1e-9 {
		t.Errorf("QualityPct = %v, want 45", sum.QualityPct)
	}
	if math.Abs(sum.CompletionPct-50) > 1e-9 {
		t.Errorf("CompletionPct = %v, want 50", sum.CompletionPct)
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[SessionKey]CompletionRecord{
		{Week: 2, Index: 1}: {},
		{Week: 1, Index: 3}: {},
		{Week: 1, Index: 1}: {},
	}
	keys := SortedKeys(m)
	want := []SessionKey{{1, 1}, {1, 3}, {2, 1}}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("SortedKeys() = %v, want %v", keys, want)
	}
}
