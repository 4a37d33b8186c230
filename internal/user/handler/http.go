// Package handler exposes the auth endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	devicesvc "robogo/backend/internal/device/service"
	"robogo/backend/internal/server/respond"
	"robogo/backend/internal/user/service"
)

// Handler serves register and login.
type Handler struct {
	auth *service.AuthService
}

// NewHandler returns an auth handler over the service.
func NewHandler(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device"`
}

type loginResponse struct {
	UserID      string    `json:"userId"`
	DeviceID    string    `json:"deviceId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			respond.Error(w, http.StatusBadRequest, ve.Error())
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			respond.Error(w, http.StatusConflict, err.Error())
		default:
			respond.Internal(w, "auth", err)
		}
		return
	}
	respond.Success(w, http.StatusCreated, "registered", map[string]string{"userId": result.UserID})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password, req.Device)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrNoDevice):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDeviceNotOwned), errors.Is(err, devicesvc.ErrDeviceNotFound):
			// Another user's device name reads the same as an unknown one.
			respond.NotFound(w)
		default:
			respond.Internal(w, "auth", err)
		}
		return
	}
	respond.Success(w, http.StatusOK, "logged in", loginResponse{
		UserID:      result.UserID,
		DeviceID:    result.DeviceID,
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
	})
}
