package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "endurance_coach"

var (
	readinessEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "readiness",
		Name:      "evaluations_total",
		Help:      "Readiness predictions computed, by resulting status.",
	}, []string{"status"})
	readinessScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "readiness",
		Name:      "last_score",
		Help:      "Composite readiness score of the most recent prediction.",
	})

	sessionMatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "sessions_total",
		Help:      "Planned sessions evaluated by the matcher, by outcome.",
	}, []string{"outcome"})

	syncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Strava sync runs, by result.",
	}, []string{"result"})
	syncActivities = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "activities_stored_total",
		Help:      "Activities written to the local store by sync runs.",
	})
	syncLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync.",
	})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		readinessEvaluations,
		readinessScore,
		sessionMatches,
		syncRuns,
		syncActivities,
		syncLastSuccess,
		httpDuration,
	)
}

// RecordReadiness counts a readiness prediction
func RecordReadiness(status string, score float64) {
	readinessEvaluations.WithLabelValues(status).Inc()
	readinessScore.Set(score)
}

// RecordMatches counts matcher outcomes of one plan evaluation
func RecordMatches(matched, unmatched int) {
	sessionMatches.WithLabelValues("matched").Add(float64(matched))
	sessionMatches.WithLabelValues("unmatched").Add(float64(unmatched))
}

// RecordSync counts a finished sync run. ts is ignored for failed runs.
func RecordSync(err error, stored int, ts time.Time) {
	if err != nil {
		syncRuns.WithLabelValues("error").Inc()
		return
	}
	syncRuns.WithLabelValues("ok").Inc()
	syncActivities.Add(float64(stored))
	if !ts.IsZero() {
		syncLastSuccess.Set(float64(ts.Unix()))
	}
}

// ObserveHTTPRequest records the latency of one API request
func ObserveHTTPRequest(route string, code int, elapsed time.Duration) {
	httpDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
