// Package handler exposes the device management endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"robogo/backend/internal/device/domain"
	"robogo/backend/internal/device/service"
	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
)

// Handler serves device registration, listing, and assignment.
type Handler struct {
	devices *service.Service
}

// NewHandler returns a device handler over the service.
func NewHandler(devices *service.Service) *Handler {
	return &Handler{devices: devices}
}

type createRequest struct {
	Name string `json:"name"`
}

type assignRequest struct {
	UserID string `json:"userId"`
}

// List handles GET /devices: the caller's robots.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	list, err := h.devices.ListByUser(r.Context(), scope.UserID)
	if err != nil {
		respond.Internal(w, "device", err)
		return
	}
	if list == nil {
		list = []*domain.Device{}
	}
	respond.Success(w, http.StatusOK, "ok", list)
}

// Create handles POST /devices: registers a robot assigned to the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		respond.Error(w, http.StatusBadRequest, "device name is required")
		return
	}
	d, err := h.devices.Register(r.Context(), req.Name, scope.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNameTaken) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		respond.Internal(w, "device", err)
		return
	}
	respond.Success(w, http.StatusCreated, "device registered", d)
}

// Assign handles POST /devices/{id}/assign: reassigns a robot to a user. An
// empty userId in the body assigns it to the caller.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = scope.UserID
	}
	d, err := h.devices.Assign(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			respond.NotFound(w)
			return
		}
		respond.Internal(w, "device", err)
		return
	}
	respond.Success(w, http.StatusOK, "device assigned", d)
}
