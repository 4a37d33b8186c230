// Package handler exposes the monitoring session lifecycle endpoints.
package handler

import (
	"net/http"

	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
	"robogo/backend/internal/session/service"
)

// Handler serves session start and stop.
type Handler struct {
	sessions *service.Manager
}

// NewHandler returns a session handler over the manager.
func NewHandler(sessions *service.Manager) *Handler {
	return &Handler{sessions: sessions}
}

type startResponse struct {
	SessionID int  `json:"sessionId"`
	Resumed   bool `json:"resumed"`
}

// Start handles GET /monitoring/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	sessionID, resumed, err := h.sessions.Start(r.Context(), scope)
	if err != nil {
		respond.Internal(w, "session", err)
		return
	}
	msg := "monitoring started"
	if resumed {
		msg = "monitoring already running"
	}
	respond.Success(w, http.StatusOK, msg, startResponse{SessionID: sessionID, Resumed: resumed})
}

// Stop handles GET /monitoring/stop. Stopping with no running session still
// answers success, with stopped=false.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	result, err := h.sessions.Stop(r.Context(), scope)
	if err != nil {
		respond.Internal(w, "session", err)
		return
	}
	msg := "monitoring stopped"
	if !result.Stopped {
		msg = "no monitoring session running"
	}
	respond.Success(w, http.StatusOK, msg, result)
}
