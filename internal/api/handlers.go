// Package api exposes the coach over HTTP as JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/config"
	"endurance-coach/internal/logger"
	"endurance-coach/internal/service"
	"endurance-coach/internal/store"
)

// Coach is the part of service.CoachService the handlers need
type Coach interface {
	RaceName() string
	RaceDate() (time.Time, error)
	Readiness(raceDate time.Time) (*analysis.ReadinessReport, error)
	PlanStatus() (*service.PlanStatus, error)
	MarkComplete(key analysis.SessionKey, activityID *int64) (analysis.CompletionRecord, error)
	MarkMissed(key analysis.SessionKey, reason string) (analysis.CompletionRecord, error)
	LoadSeries(from, to time.Time) ([]analysis.DailyLoadPoint, error)
}

var _ Coach = (*service.CoachService)(nil)

// Handler handles HTTP interactions.
type Handler struct {
	coach Coach
	log   *logger.Logger
	now   func() time.Time
}

// NewHandler constructs Handler.
func NewHandler(coach Coach, log *logger.Logger) *Handler {
	return &Handler{coach: coach, log: log, now: time.Now}
}

// RegisterRoutes sets up routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", healthz)
	mux.HandleFunc("/api/readiness", h.readiness)
	mux.HandleFunc("/api/plan", h.plan)
	mux.HandleFunc("POST /api/plan/sessions/{key}/complete", h.markComplete)
	mux.HandleFunc("POST /api/plan/sessions/{key}/missed", h.markMissed)
	mux.HandleFunc("/api/load", h.load)
}

// healthz returns an OK response for readiness probes.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness serves GET /api/readiness?race=YYYY-MM-DD. Without race the
// configured event is used.
func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	name := ""
	var raceDate time.Time
	if q := r.URL.Query().Get("race"); q != "" {
		d, err := time.Parse(config.DateLayout, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "race must be YYYY-MM-DD")
			return
		}
		raceDate = d
	} else {
		d, err := h.coach.RaceDate()
		if err != nil {
			if errors.Is(err, config.ErrNoRace) {
				writeError(w, http.StatusBadRequest, "invalid_request", "no race configured; pass ?race=YYYY-MM-DD")
				return
			}
			h.serverError(w, r, err)
			return
		}
		raceDate = d
		name = h.coach.RaceName()
	}

	report, err := h.coach.Readiness(raceDate)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReadinessView(name, raceDate, report))
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	status, err := h.coach.PlanStatus()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanView(status))
}

type markCompleteRequest struct {
	ActivityID *int64 `json:"activity_id"`
}

type markMissedRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) markComplete(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req markCompleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.coach.MarkComplete(key, req.ActivityID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompletionView(rec))
}

func (h *Handler) markMissed(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req markMissedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.coach.MarkMissed(key, req.Reason)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompletionView(rec))
}

// load serves GET /api/load?from=&to=. The default window is the last
// DashboardLoadDays days.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	y, m, d := h.now().Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -(service.DashboardLoadDays - 1))

	var err error
	if q := r.URL.Query().Get("from"); q != "" {
		if from, err = time.Parse(config.DateLayout, q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "from must be YYYY-MM-DD")
			return
		}
	}
	if q := r.URL.Query().Get("to"); q != "" {
		if to, err = time.Parse(config.DateLayout, q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "to must be YYYY-MM-DD")
			return
		}
	}

	series, err := h.coach.LoadSeries(from, to)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":   from.Format(config.DateLayout),
		"to":     to.Format(config.DateLayout),
		"series": newLoadViews(series),
	})
}

func sessionKey(w http.ResponseWriter, r *http.Request) (analysis.SessionKey, bool) {
	key, err := analysis.ParseSessionKey(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return analysis.SessionKey{}, false
	}
	return key, true
}

// decodeBody reads an optional JSON body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return false
	}
	return true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, store.ErrNoPlan):
		writeError(w, http.StatusNotFound, "not_found", "no training plan imported")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"type": code, "detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
