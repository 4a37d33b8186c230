// Package handler exposes the path-log endpoints: direct odometry ingestion
// plus reads and deletes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"robogo/backend/internal/pathlog/domain"
	"robogo/backend/internal/pathlog/repository"
	"robogo/backend/internal/pathlog/service"
	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
	ultradomain "robogo/backend/internal/ultrasonic/domain"
)

// Handler serves path-log ingestion and reads.
type Handler struct {
	svc  *service.Service
	repo repository.Repository
}

// NewHandler returns a path-log handler over the service and repository.
func NewHandler(svc *service.Service, repo repository.Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

type ingestRequest struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Speed    float64  `json:"speed"`
	Heading  float64  `json:"heading"`
	Distance *float64 `json:"distance"`
}

type ingestResponse struct {
	Log      *domain.Log            `json:"log"`
	Alert    ultradomain.AlertLevel `json:"alertLevel"`
	Obstacle bool                   `json:"obstacle"`
}

// Ingest handles POST /logs/path.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := h.svc.Ingest(r.Context(), scope, service.Input{
		X:        req.X,
		Y:        req.Y,
		Speed:    req.Speed,
		Heading:  req.Heading,
		Distance: req.Distance,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			respond.Error(w, http.StatusBadRequest, "no active session; start monitoring first")
			return
		}
		respond.Internal(w, "pathlog", err)
		return
	}
	respond.Success(w, http.StatusCreated, "path logged", ingestResponse{
		Log:      result.Log,
		Alert:    result.Alert,
		Obstacle: result.Obstacle,
	})
}

// List handles GET /logs/path. A session query parameter narrows the list to
// one session's path.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	var logs []*domain.Log
	var err error
	if raw := r.URL.Query().Get("session"); raw != "" {
		sessionID, convErr := strconv.Atoi(raw)
		if convErr != nil || sessionID <= 0 {
			respond.Error(w, http.StatusBadRequest, "invalid session id")
			return
		}
		logs, err = h.repo.ListBySession(r.Context(), scope, sessionID)
	} else {
		logs, err = h.repo.ListByScope(r.Context(), scope)
	}
	if err != nil {
		respond.Internal(w, "pathlog", err)
		return
	}
	if logs == nil {
		logs = []*domain.Log{}
	}
	respond.Success(w, http.StatusOK, "ok", logs)
}

// Get handles GET /logs/path/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	l, err := h.repo.GetByID(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		respond.Internal(w, "pathlog", err)
		return
	}
	if l == nil {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "ok", l)
}

// Delete handles DELETE /logs/path/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	deleted, err := h.repo.Delete(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		respond.Internal(w, "pathlog", err)
		return
	}
	if !deleted {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "deleted", nil)
}
