package service

const (
	// Strava pagination
	SyncPageSize = 100

	// LoadWarmupFactor multiplies the CTL time constant to get how many days
	// before a requested window activities are read, so the EWMA has settled
	// by the first reported day
	LoadWarmupFactor = 3

	// RecentActivitiesLimit is how many activities the dashboard lists
	RecentActivitiesLimit = 10

	// DashboardLoadDays is the length of the dashboard load chart
	DashboardLoadDays = 42
)

// Sync phases reported through SyncProgress
const (
	PhaseActivities = "activities"
	PhaseDone       = "done"
)

// Session states shown in plan views
const (
	StateCompleted = "completed"
	StateMissed    = "missed"
	StatePending   = "pending"
	StateUpcoming  = "upcoming"
)
