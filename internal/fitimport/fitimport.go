// Package fitimport turns FIT activity files from bike computers into stored
// activities, for rides that never reach Strava.
package fitimport

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"endurance-coach/internal/logger"
	"endurance-coach/internal/store"
)

// ErrNoSessions is returned for activity files without a session message
var ErrNoSessions = errors.New("activity file has no session message")

// npWindow is the rolling window in samples (1 Hz) for normalized power
const npWindow = 30

// ActivitySink stores decoded activities
type ActivitySink interface {
	UpsertActivity(a *store.Activity) error
}

// Result reports what an import run did
type Result struct {
	Files      int
	Activities int
	Errors     []error
}

// Decode reads one FIT activity file and returns an activity per session.
// name labels the activities; FIT files carry no title.
func Decode(r io.Reader, name string) ([]store.Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoSessions
	}

	series := buildPowerSeries(activity.Records)
	offset := localOffset(activity.Activity)

	out := make([]store.Activity, 0, len(activity.Sessions))
	for i, session := range activity.Sessions {
		if session == nil {
			continue
		}
		a, err := convertSession(session, series, offset)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i+1, err)
		}
		a.Name = name
		if len(activity.Sessions) > 1 {
			a.Name = fmt.Sprintf("%s (%d)", name, i+1)
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, ErrNoSessions
	}
	return out, nil
}

// ImportFiles decodes every path and upserts the activities into sink.
// Directories are scanned for *.fit files. A bad file is recorded in
// Result.Errors and does not stop the run.
func ImportFiles(paths []string, sink ActivitySink, log *logger.Logger) (*Result, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, path := range files {
		activities, err := decodeFile(path)
		if err != nil {
			log.Warn("skipping FIT file", "path", path, "error", err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			continue
		}
		result.Files++

		for i := range activities {
			if err := sink.UpsertActivity(&activities[i]); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: storing activity: %w", path, err))
				continue
			}
			result.Activities++
		}
		log.Debug("imported FIT file", "path", path, "activities", len(activities))
	}
	return result, nil
}

func decodeFile(path string) ([]store.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(f, name)
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".fit") {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ActivityID derives a stable id for a FIT activity. Strava ids are
// positive, so FIT activities use the negated start time.
func ActivityID(start time.Time) int64 {
	return -start.Unix()
}

func convertSession(session *fit.SessionMsg, series powerSeries, offset time.Duration) (store.Activity, error) {
	start := validTimeOrZero(session.StartTime)
	if start.IsZero() {
		start = series.start
	}
	if start.IsZero() {
		return store.Activity{}, errors.New("no start time")
	}
	start = start.UTC()

	elapsed := safePositive(session.GetTotalElapsedTimeScaled())
	timer := safePositive(session.GetTotalTimerTimeScaled())
	if timer == 0 {
		timer = elapsed
	}
	if elapsed == 0 {
		elapsed = timer
	}

	a := store.Activity{
		ID:             ActivityID(start),
		Source:         store.SourceFIT,
		Type:           sportName(session.Sport, session.SubSport),
		StartDate:      start,
		StartDateLocal: start.Add(offset),
		MovingTime:     int(math.Round(timer)),
		ElapsedTime:    int(math.Round(elapsed)),
	}

	a.Distance = positivePtr(session.GetTotalDistanceScaled())
	a.TotalElevationGain = positivePtr(float64(validUint16(session.TotalAscent)))
	a.AverageHeartrate = positivePtr(float64(validUint8(session.AvgHeartRate)))
	a.MaxHeartrate = positivePtr(float64(validUint8(session.MaxHeartRate)))

	avgPower := float64(validUint16(session.AvgPower))
	if avgPower == 0 {
		avgPower = average(series.samples)
	}
	np := float64(validUint16(session.NormalizedPower))
	if np == 0 {
		np = normalizedPower(series.samples)
	}
	a.AverageWatts = positivePtr(avgPower)
	a.WeightedAverageWatts = positivePtr(np)
	a.DeviceWatts = a.AverageWatts != nil

	work := float64(validUint32(session.TotalWork)) / 1000.0
	if work == 0 && avgPower > 0 {
		work = avgPower * timer / 1000.0
	}
	a.Kilojoules = positivePtr(work)

	// training_stress_score is stored with scale 10
	a.TSS = positivePtr(float64(validUint16(session.TrainingStressScore)) / 10.0)

	return a, nil
}

// sportName maps FIT sport codes onto the activity type names Strava uses
func sportName(sport fit.Sport, subSport fit.SubSport) string {
	switch sport {
	case fit.SportCycling, fit.SportEBiking:
		if subSport == fit.SubSportVirtualActivity || subSport == fit.SubSportIndoorCycling {
			return "VirtualRide"
		}
		return "Ride"
	case fit.SportRunning:
		return "Run"
	case fit.SportTraining, fit.SportFitnessEquipment:
		return "Workout"
	default:
		return "Other"
	}
}

// localOffset is the device's UTC offset as recorded in the activity message
func localOffset(msg *fit.ActivityMsg) time.Duration {
	if msg == nil {
		return 0
	}
	ts := validTimeOrZero(msg.Timestamp)
	local := validTimeOrZero(msg.LocalTimestamp)
	if ts.IsZero() || local.IsZero() {
		return 0
	}
	// local_timestamp encodes wall clock time as if it were UTC
	return local.Sub(ts).Round(15 * time.Minute)
}

type powerSeries struct {
	start   time.Time
	samples []float64
}

func buildPowerSeries(records []*fit.RecordMsg) powerSeries {
	var ps powerSeries

	sorted := make([]*fit.RecordMsg, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			sorted = append(sorted, rec)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	for _, rec := range sorted {
		if ps.start.IsZero() {
			ps.start = validTimeOrZero(rec.Timestamp)
		}
		if rec.Power != math.MaxUint16 {
			ps.samples = append(ps.samples, float64(rec.Power))
		}
	}
	return ps
}

func normalizedPower(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	if len(samples) < npWindow {
		return average(samples)
	}

	sum := 0.0
	for i := 0; i < npWindow; i++ {
		sum += samples[i]
	}

	total := 0.0
	count := 0
	for i := npWindow - 1; i < len(samples); i++ {
		if i >= npWindow {
			sum += samples[i] - samples[i-npWindow]
		}
		rolling := sum / npWindow
		total += math.Pow(rolling, 4)
		count++
	}
	return math.Pow(total/float64(count), 0.25)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint8(v uint8) uint8 {
	if v == math.MaxUint8 {
		return 0
	}
	return v
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func validUint32(v uint32) uint32 {
	if v == math.MaxUint32 {
		return 0
	}
	return v
}

func safePositive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}

func positivePtr(v float64) *float64 {
	if safePositive(v) == 0 {
		return nil
	}
	return &v
}
