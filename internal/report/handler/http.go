// Package handler exposes the dashboard report endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"robogo/backend/internal/localdate"
	"robogo/backend/internal/report"
	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
	sessiondomain "robogo/backend/internal/session/domain"
)

// Handler serves report summaries and date indexes.
type Handler struct {
	reports *report.Service
}

// NewHandler returns a report handler over the service.
func NewHandler(reports *report.Service) *Handler {
	return &Handler{reports: reports}
}

// Ultrasonic handles GET /reports/summaries[/{date}[/session/{id}]].
func (h *Handler) Ultrasonic(w http.ResponseWriter, r *http.Request) {
	scope, date, sessionID, ok := reportParams(w, r)
	if !ok {
		return
	}
	sum, err := h.reports.Ultrasonic(r.Context(), scope, date, sessionID)
	if err != nil {
		respond.Internal(w, "report", err)
		return
	}
	respond.Success(w, http.StatusOK, "ok", sum)
}

// IMU handles GET /reports/imu/summaries[/{date}[/session/{id}]].
func (h *Handler) IMU(w http.ResponseWriter, r *http.Request) {
	scope, date, sessionID, ok := reportParams(w, r)
	if !ok {
		return
	}
	sum, err := h.reports.IMU(r.Context(), scope, date, sessionID)
	if err != nil {
		respond.Internal(w, "report", err)
		return
	}
	respond.Success(w, http.StatusOK, "ok", sum)
}

// Dates handles GET /reports/dates.
func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	h.dates(w, r, false)
}

// DatesWithSessions handles GET /reports/dates-with-sessions.
func (h *Handler) DatesWithSessions(w http.ResponseWriter, r *http.Request) {
	h.dates(w, r, true)
}

func (h *Handler) dates(w http.ResponseWriter, r *http.Request, withSessions bool) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	entries, err := h.reports.Dates(r.Context(), scope, withSessions)
	if err != nil {
		respond.Internal(w, "report", err)
		return
	}
	if entries == nil {
		entries = []report.DateEntry{}
	}
	respond.Success(w, http.StatusOK, "ok", entries)
}

// reportParams extracts scope, optional date, and optional session id from
// the route. It writes the error response itself when validation fails.
func reportParams(w http.ResponseWriter, r *http.Request) (sessiondomain.Scope, string, int, bool) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return sessiondomain.Scope{}, "", 0, false
	}
	vars := mux.Vars(r)
	date := vars["date"]
	if date != "" {
		if _, err := localdate.Parse(date); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return sessiondomain.Scope{}, "", 0, false
		}
	}
	sessionID := 0
	if raw := vars["id"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "invalid session id")
			return sessiondomain.Scope{}, "", 0, false
		}
		sessionID = n
	}
	return scope, date, sessionID, true
}
