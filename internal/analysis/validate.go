package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput is wrapped by every ValidationError
var ErrInvalidInput = errors.New("invalid input")

// ValidationError identifies the offending field of a malformed input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateActivity rejects activities that cannot be evaluated
func ValidateActivity(a Activity) error {
	prefix := fmt.Sprintf("activity[%d].", a.ID)
	if a.Date.IsZero() {
		return invalid(prefix+"date", "missing")
	}
	if a.DurationSeconds < 0 {
		return invalid(prefix+"duration", fmt.Sprintf("negative (%d)", a.DurationSeconds))
	}
	optional := []struct {
		name  string
		value *float64
	}{
		{"distance", a.DistanceMeters},
		{"average_power", a.AveragePower},
		{"normalized_power", a.NormalizedPower},
		{"average_heart_rate", a.AverageHeartRate},
		{"tss", a.TSS},
	}
	for _, o := range optional {
		if o.value == nil {
			continue
		}
		if math.IsNaN(*o.value) || math.IsInf(*o.value, 0) {
			return invalid(prefix+o.name, "not a number")
		}
		if *o.value < 0 {
			return invalid(prefix+o.name, fmt.Sprintf("negative (%v)", *o.value))
		}
	}
	return nil
}

// ValidateActivities validates every activity, stopping at the first failure
func ValidateActivities(activities []Activity) error {
	for _, a := range activities {
		if err := ValidateActivity(a); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSession rejects malformed planned sessions
func ValidateSession(s PlannedSession) error {
	prefix := fmt.Sprintf("session[%s].", s.Key())
	if s.Date.IsZero() {
		return invalid(prefix+"date", "missing")
	}
	if !s.Type.Valid() {
		return invalid(prefix+"type", fmt.Sprintf("unknown session type %q", s.Type))
	}
	if s.DurationMinutes < 0 {
		return invalid(prefix+"duration_minutes", fmt.Sprintf("negative (%d)", s.DurationMinutes))
	}
	return nil
}

// ValidateFTP rejects non-positive FTP values. nil is allowed.
func ValidateFTP(ftp *float64) error {
	if ftp == nil {
		return nil
	}
	if math.IsNaN(*ftp) || *ftp <= 0 {
		return invalid("ftp", fmt.Sprintf("must be positive, got %v", *ftp))
	}
	return nil
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() {
		return invalid("window_start", "missing")
	}
	if end.IsZero() {
		return invalid("window_end", "missing")
	}
	if calendarDay(end).Before(calendarDay(start)) {
		return invalid("window_end", "before window start")
	}
	return nil
}
