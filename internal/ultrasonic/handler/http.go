// Package handler exposes read and delete endpoints for finalized
// ultrasonic logs.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
	"robogo/backend/internal/ultrasonic/domain"
	"robogo/backend/internal/ultrasonic/repository"
)

// Handler serves ultrasonic log reads and deletes.
type Handler struct {
	repo repository.Repository
}

// NewHandler returns an ultrasonic log handler over the repository.
func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /logs/ultrasonic.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	logs, err := h.repo.ListByScope(r.Context(), scope)
	if err != nil {
		respond.Internal(w, "ultrasonic", err)
		return
	}
	if logs == nil {
		logs = []*domain.Log{}
	}
	respond.Success(w, http.StatusOK, "ok", logs)
}

// Get handles GET /logs/ultrasonic/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	l, err := h.repo.GetByID(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		respond.Internal(w, "ultrasonic", err)
		return
	}
	if l == nil {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "ok", l)
}

// Delete handles DELETE /logs/ultrasonic/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	deleted, err := h.repo.Delete(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		respond.Internal(w, "ultrasonic", err)
		return
	}
	if !deleted {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "deleted", nil)
}
