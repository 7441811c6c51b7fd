package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"endurance-coach/internal/analysis"
)

const activityColumns = `id, source, name, type, start_date, start_date_local, timezone,
	distance, moving_time, elapsed_time, total_elevation_gain,
	average_heartrate, max_heartrate, average_watts, weighted_average_watts,
	device_watts, kilojoules, tss`

// UpsertActivity inserts or updates an activity
func (s *Store) UpsertActivity(a *Activity) error {
	source := a.Source
	if source == "" {
		source = SourceStrava
	}
	_, err := s.db.Exec(`
		INSERT INTO activities (`+activityColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			average_watts = excluded.average_watts,
			weighted_average_watts = excluded.weighted_average_watts,
			device_watts = excluded.device_watts,
			kilojoules = excluded.kilojoules,
			tss = excluded.tss,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, source, a.Name, a.Type,
		a.StartDate.UTC().Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339), a.Timezone,
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageHeartrate, a.MaxHeartrate, a.AverageWatts, a.WeightedAverageWatts,
		boolToInt(a.DeviceWatts), a.Kilojoules, a.TSS,
	)
	return err
}

// GetActivity retrieves an activity by ID
func (s *Store) GetActivity(id int64) (*Activity, error) {
	row := s.db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns activities ordered by start date descending
func (s *Store) ListActivities(limit, offset int) ([]Activity, error) {
	rows, err := s.db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date_local DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListActivitiesBetween returns the activities whose local start date falls
// on a calendar day in [from, to], oldest first
func (s *Store) ListActivitiesBetween(from, to time.Time) ([]analysis.Activity, error) {
	rows, err := s.db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE start_date_local >= ? AND start_date_local < ?
		ORDER BY start_date_local ASC, id ASC
	`, from.Format("2006-01-02"), to.AddDate(0, 0, 1).Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored, err := scanActivities(rows)
	if err != nil {
		return nil, err
	}

	activities := make([]analysis.Activity, 0, len(stored))
	for _, a := range stored {
		activities = append(activities, a.ToAnalysis())
	}
	return activities, nil
}

// CountActivities returns the total number of activities
func (s *Store) CountActivities() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

// LatestActivityStart returns the UTC start of the newest activity from source,
// or the zero time when there is none
func (s *Store) LatestActivityStart(source string) (time.Time, error) {
	var v sql.NullString
	err := s.db.QueryRow(`SELECT MAX(start_date) FROM activities WHERE source = ?`, source).Scan(&v)
	if err != nil || !v.Valid {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start_date %q: %w", v.String, err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanActivity scans a single activity from a row
func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var timezone sql.NullString
	var deviceWatts int

	err := row.Scan(
		&a.ID, &a.Source, &a.Name, &a.Type, &startDate, &startDateLocal, &timezone,
		&a.Distance, &a.MovingTime, &a.ElapsedTime, &a.TotalElevationGain,
		&a.AverageHeartrate, &a.MaxHeartrate, &a.AverageWatts, &a.WeightedAverageWatts,
		&deviceWatts, &a.Kilojoules, &a.TSS,
	)
	if err != nil {
		return nil, err
	}

	var parseErr error
	a.StartDate, parseErr = time.Parse(time.RFC3339, startDate)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, parseErr)
	}
	a.StartDateLocal, parseErr = time.Parse(time.RFC3339, startDateLocal)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, parseErr)
	}
	a.Timezone = timezone.String
	a.DeviceWatts = deviceWatts == 1

	return &a, nil
}

// scanActivities scans multiple activities from rows
func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}
