package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"endurance-coach/internal/logger"
	"endurance-coach/internal/observability"
	"endurance-coach/internal/store"
	"endurance-coach/internal/strava"
)

// ActivityFetcher is the part of the Strava client the sync needs
type ActivityFetcher interface {
	GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error)
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// SyncService orchestrates syncing activity summaries from Strava
type SyncService struct {
	client ActivityFetcher
	store  *store.Store
	log    *logger.Logger
	now    func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(client ActivityFetcher, store *store.Store, log *logger.Logger) *SyncService {
	return &SyncService{
		client: client,
		store:  store,
		log:    log,
		now:    time.Now,
	}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string
	Total           int
	Completed       int
	CurrentActivity string
	Error           error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	RunID             string
	ActivitiesFetched int
	ActivitiesStored  int
	Rides             int
	Errors            []error
}

// SyncAll fetches every activity newer than the last stored Strava activity.
// Per-activity failures are collected in SyncResult.Errors; fetch failures
// and cancellation abort the run. progress, when non-nil, is closed on return.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{RunID: uuid.NewString()}
	log := s.log.With("sync_run", result.RunID)
	started := s.now()

	err := s.syncActivities(ctx, progress, result, log)
	if err == nil {
		if serr := s.store.SetSyncTime(store.KeyLastSync, s.now()); serr != nil {
			result.Errors = append(result.Errors, fmt.Errorf("recording sync time: %w", serr))
		}
	}
	observability.RecordSync(err, result.ActivitiesStored, s.now())

	if err != nil {
		log.Error("sync failed", "error", err, "stored", result.ActivitiesStored)
		if progress != nil {
			progress <- SyncProgress{Phase: PhaseDone, Error: err}
		}
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	log.Info("sync complete",
		"fetched", result.ActivitiesFetched,
		"stored", result.ActivitiesStored,
		"rides", result.Rides,
		"errors", len(result.Errors),
		"elapsed", time.Since(started).String(),
	)
	if progress != nil {
		progress <- SyncProgress{Phase: PhaseDone, Total: result.ActivitiesFetched, Completed: result.ActivitiesStored}
	}
	return result, nil
}

// syncActivities pages through Strava and stores the summaries
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult, log *logger.Logger) error {
	after, err := s.store.LatestActivityStart(store.SourceStrava)
	if err != nil {
		return fmt.Errorf("reading last activity: %w", err)
	}
	log.Debug("fetching activities", "after", after)

	if progress != nil {
		progress <- SyncProgress{Phase: PhaseActivities}
	}

	page := 1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		activities, err := s.client.GetActivities(ctx, after, page, SyncPageSize)
		if err != nil {
			return fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		result.ActivitiesFetched += len(activities)

		for _, a := range activities {
			if err := s.store.UpsertActivity(convertActivity(a)); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
				continue
			}
			result.ActivitiesStored++
			if isRide(a) {
				result.Rides++
			}
		}

		if progress != nil {
			last := activities[len(activities)-1]
			progress <- SyncProgress{
				Phase:           PhaseActivities,
				Total:           result.ActivitiesFetched,
				Completed:       result.ActivitiesStored,
				CurrentActivity: last.Name,
			}
		}

		if len(activities) < SyncPageSize {
			break // Last page
		}

		page++
	}

	return nil
}

// LastSync returns when the last successful sync finished, zero if never
func (s *SyncService) LastSync() (time.Time, error) {
	return s.store.GetSyncTime(store.KeyLastSync)
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.client.RateLimitStatus()
}

func isRide(a strava.Activity) bool {
	switch a.Sport() {
	case "Ride", "VirtualRide", "EBikeRide", "GravelRide", "MountainBikeRide":
		return true
	}
	return false
}

// convertActivity converts a Strava API activity to a store activity.
// Zero-valued optional metrics mean Strava did not report them.
func convertActivity(a strava.Activity) *store.Activity {
	return &store.Activity{
		ID:                   a.ID,
		Source:               store.SourceStrava,
		Name:                 a.Name,
		Type:                 a.Sport(),
		StartDate:            a.StartDate,
		StartDateLocal:       a.StartDateLocal,
		Timezone:             a.Timezone,
		Distance:             positive(a.Distance),
		MovingTime:           a.MovingTime,
		ElapsedTime:          a.ElapsedTime,
		TotalElevationGain:   positive(a.TotalElevationGain),
		AverageHeartrate:     positive(a.AverageHeartrate),
		MaxHeartrate:         positive(a.MaxHeartrate),
		AverageWatts:         positive(a.AverageWatts),
		WeightedAverageWatts: positive(a.WeightedAverageWatts),
		DeviceWatts:          a.DeviceWatts,
		Kilojoules:           positive(a.Kilojoules),
	}
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
