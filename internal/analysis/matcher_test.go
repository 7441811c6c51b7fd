package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func mustMatch(t *testing.T, s PlannedSession, activities []Activity, ftp *float64, p Params) MatchRecord {
	t.Helper()
	rec, err := MatchSession(s, activities, ftp, p)
	if err != nil {
		t.Fatalf("MatchSession() error = %v", err)
	}
	return rec
}

func TestMatchSessionExactDay(t *testing.T) {
	ftp := floatPtr(250)
	s := session(1, 1, day(10), SessionEndurance, 60)
	a := withPower(ride(42, day(10), 58), 150)

	rec := mustMatch(t, s, []Activity{a}, ftp, DefaultParams())

	if !rec.Matched {
		t.Fatalf("expected match, got %+v", rec)
	}
	if math.Abs(rec.Score-100) > 0.001 {
		t.Errorf("Score = %v, want 100", rec.Score)
	}
	if rec.DateOffset != 0 {
		t.Errorf("DateOffset = %d, want 0", rec.DateOffset)
	}
	if !strings.HasPrefix(rec.Reason, "Excellent match") {
		t.Errorf("Reason = %q, want Excellent match", rec.Reason)
	}
	if rec.Activity == nil || rec.Activity.ID != 42 {
		t.Errorf("Activity = %+v, want ID 42", rec.Activity)
	}
	if rec.Breakdown.Effort.Evaluated {
		t.Error("effort factor should be skipped without recorded TSS")
	}
}

func TestMatchSessionDayLater(t *testing.T) {
	s := session(1, 1, day(10), SessionEndurance, 60)
	a := withPower(ride(7, day(11), 58), 150)

	rec := mustMatch(t, s, []Activity{a}, floatPtr(250), DefaultParams())

	if !rec.Matched {
		t.Fatalf("expected match, got %+v", rec)
	}
	if rec.DateOffset != 1 {
		t.Errorf("DateOffset = %d, want 1", rec.DateOffset)
	}
	if !strings.HasSuffix(rec.Reason, "(done 1 day later)") {
		t.Errorf("Reason = %q, want day-later suffix", rec.Reason)
	}
}

func TestMatchSessionSearchOrder(t *testing.T) {
	ftp := floatPtr(250)
	s := session(1, 1, day(10), SessionEndurance, 60)

	t.Run("earlier day wins over later day", func(t *testing.T) {
		before := withPower(ride(1, day(9), 58), 150)
		after := withPower(ride(2, day(11), 58), 150)

		rec := mustMatch(t, s, []Activity{after, before}, ftp, DefaultParams())
		if rec.DateOffset != -1 || rec.Activity.ID != 1 {
			t.Errorf("got offset %d activity %d, want -1 and 1", rec.DateOffset, rec.Activity.ID)
		}
		if !strings.HasSuffix(rec.Reason, "(done 1 day earlier)") {
			t.Errorf("Reason = %q", rec.Reason)
		}
	})

	t.Run("same day wins even with a worse score", func(t *testing.T) {
		poor := Activity{ID: 1, Type: ActivityRun, Date: day(10), DurationSeconds: 600}
		good := withPower(ride(2, day(9), 60), 150)

		rec := mustMatch(t, s, []Activity{good, poor}, ftp, DefaultParams())
		if rec.DateOffset != 0 || rec.Activity.ID != 1 {
			t.Errorf("got offset %d activity %d, want 0 and 1", rec.DateOffset, rec.Activity.ID)
		}
	})

	t.Run("two days out", func(t *testing.T) {
		a := withPower(ride(3, day(12), 60), 150)
		rec := mustMatch(t, s, []Activity{a}, ftp, DefaultParams())
		if rec.DateOffset != 2 || !strings.HasSuffix(rec.Reason, "(done 2 days later)") {
			t.Errorf("got offset %d reason %q", rec.DateOffset, rec.Reason)
		}
	})

	t.Run("three days out is not searched", func(t *testing.T) {
		a := withPower(ride(4, day(13), 60), 150)
		rec := mustMatch(t, s, []Activity{a}, ftp, DefaultParams())
		if rec.Activity != nil {
			t.Errorf("expected no candidate, got %+v", rec.Activity)
		}
	})
}

func TestMatchSessionNoActivity(t *testing.T) {
	s := session(2, 3, day(10), SessionTempo, 90)

	rec := mustMatch(t, s, nil, floatPtr(250), DefaultParams())

	if rec.Matched {
		t.Error("expected no match")
	}
	if rec.Score != 0 {
		t.Errorf("Score = %v, want 0", rec.Score)
	}
	if rec.Reason != "No activity found within ±2 days" {
		t.Errorf("Reason = %q", rec.Reason)
	}
	if rec.Key != (SessionKey{Week: 2, Index: 3}) {
		t.Errorf("Key = %v", rec.Key)
	}
}

func TestMatchSessionBelowThreshold(t *testing.T) {
	s := session(1, 1, day(10), SessionThreshold, 90)
	// short run without power or HR: duration 0/30, kind 0/20
	a := Activity{ID: 9, Type: ActivityRun, Date: day(10), DurationSeconds: 1200}

	rec := mustMatch(t, s, []Activity{a}, floatPtr(250), DefaultParams())

	if rec.Matched {
		t.Fatal("expected no match")
	}
	if rec.Reason != "Activity found but does not match session requirements" {
		t.Errorf("Reason = %q", rec.Reason)
	}
	if rec.Activity == nil || rec.Activity.ID != 9 {
		t.Error("best candidate should stay attached")
	}
	if rec.Score != 0 {
		t.Errorf("Score = %v, want 0", rec.Score)
	}
}

func TestMatchSessionTieKeepsFirst(t *testing.T) {
	s := session(1, 1, day(10), SessionEndurance, 60)
	first := withPower(ride(100, day(10), 60), 150)
	second := withPower(ride(200, day(10), 60), 150)

	rec := mustMatch(t, s, []Activity{first, second}, floatPtr(250), DefaultParams())
	if rec.Activity.ID != 100 {
		t.Errorf("tie picked activity %d, want first (100)", rec.Activity.ID)
	}

	rec = mustMatch(t, s, []Activity{second, first}, floatPtr(250), DefaultParams())
	if rec.Activity.ID != 200 {
		t.Errorf("tie picked activity %d, want first (200)", rec.Activity.ID)
	}
}

func TestMatchSessionPicksBestOfDay(t *testing.T) {
	s := session(1, 1, day(10), SessionEndurance, 60)
	commute := withPower(ride(1, day(10), 15), 120)
	workout := withPower(ride(2, day(10), 62), 160)

	rec := mustMatch(t, s, []Activity{commute, workout}, floatPtr(250), DefaultParams())
	if rec.Activity.ID != 2 {
		t.Errorf("picked activity %d, want 2", rec.Activity.ID)
	}
}

func TestMatchAll(t *testing.T) {
	sessions := []PlannedSession{
		session(1, 1, day(0), SessionEndurance, 60),
		session(1, 2, day(2), SessionEndurance, 60),
		session(1, 3, day(20), SessionRecovery, 30),
	}
	activities := []Activity{
		withPower(ride(1, day(0), 60), 150),
		withPower(ride(2, day(2), 60), 150),
	}

	records, err := MatchAll(sessions, activities, floatPtr(250), DefaultParams())
	if err != nil {
		t.Fatalf("MatchAll() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if !records[SessionKey{1, 1}].Matched || !records[SessionKey{1, 2}].Matched {
		t.Error("expected first two sessions matched")
	}
	if records[SessionKey{1, 3}].Matched {
		t.Error("expected third session unmatched")
	}
	// MatchAll reuses activities across sessions
	if records[SessionKey{1, 1}].Activity.ID != 1 || records[SessionKey{1, 2}].Activity.ID != 2 {
		t.Error("sessions matched to wrong activities")
	}
}

func TestMatchAllDoesNotMutateInput(t *testing.T) {
	activities := []Activity{
		withPower(ride(2, day(1), 60), 150),
		withPower(ride(1, day(0), 60), 150),
	}
	sessions := []PlannedSession{session(1, 1, day(0), SessionEndurance, 60)}

	if _, err := MatchAll(sessions, activities, floatPtr(250), DefaultParams()); err != nil {
		t.Fatalf("MatchAll() error = %v", err)
	}

	if activities[0].ID != 2 || activities[1].ID != 1 {
		t.Error("input activities were reordered")
	}
}

func TestMatchRejectsMalformedInput(t *testing.T) {
	good := session(1, 1, day(10), SessionEndurance, 60)
	valid := withPower(ride(1, day(10), 60), 150)

	zeroDate := valid
	zeroDate.ID = 2
	zeroDate.Date = time.Time{}

	negDuration := valid
	negDuration.ID = 3
	negDuration.DurationSeconds = -3600

	negTSS := withTSS(valid, -50)
	negTSS.ID = 4

	undated := good
	undated.Date = time.Time{}

	negMinutes := good
	negMinutes.DurationMinutes = -60

	tests := []struct {
		name       string
		session    PlannedSession
		activities []Activity
		ftp        *float64
		field      string
	}{
		{"activity zero date", good, []Activity{valid, zeroDate}, floatPtr(250), "activity[2].date"},
		{"activity negative duration", good, []Activity{negDuration}, floatPtr(250), "activity[3].duration"},
		{"activity negative tss", good, []Activity{negTSS}, floatPtr(250), "activity[4].tss"},
		{"session zero date", undated, []Activity{valid}, floatPtr(250), "session[w1s1].date"},
		{"session negative duration", negMinutes, []Activity{valid}, floatPtr(250), "session[w1s1].duration_minutes"},
		{"zero ftp", good, []Activity{valid}, floatPtr(0), "ftp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MatchSession(tt.session, tt.activities, tt.ftp, DefaultParams())
			assertValidationField(t, "MatchSession", err, tt.field)

			records, err := MatchAll([]PlannedSession{tt.session}, tt.activities, tt.ftp, DefaultParams())
			assertValidationField(t, "MatchAll", err, tt.field)
			if records != nil {
				t.Errorf("MatchAll() records = %v, want nil", records)
			}
		})
	}
}

func assertValidationField(t *testing.T, fn string, err error, field string) {
	t.Helper()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("%s() error = %v, want ErrInvalidInput", fn, err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != field {
		t.Errorf("%s() field = %v, want %q", fn, err, field)
	}
}
