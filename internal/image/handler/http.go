// Package handler exposes read and delete endpoints for stored camera frames.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"robogo/backend/internal/image/domain"
	"robogo/backend/internal/image/repository"
	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
	"robogo/backend/internal/storage"
)

// Handler serves image record reads and deletes.
type Handler struct {
	repo  repository.Repository
	blobs storage.Store
}

// NewHandler returns an image handler over the repository and blob store.
func NewHandler(repo repository.Repository, blobs storage.Store) *Handler {
	return &Handler{repo: repo, blobs: blobs}
}

// List handles GET /images. A session query parameter narrows the list to
// one session's frames.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	var imgs []*domain.Image
	var err error
	if raw := r.URL.Query().Get("session"); raw != "" {
		sessionID, convErr := strconv.Atoi(raw)
		if convErr != nil || sessionID <= 0 {
			respond.Error(w, http.StatusBadRequest, "invalid session id")
			return
		}
		imgs, err = h.repo.ListBySession(r.Context(), scope, sessionID)
	} else {
		imgs, err = h.repo.ListByScope(r.Context(), scope)
	}
	if err != nil {
		respond.Internal(w, "image", err)
		return
	}
	if imgs == nil {
		imgs = []*domain.Image{}
	}
	respond.Success(w, http.StatusOK, "ok", imgs)
}

// Get handles GET /images/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	img, err := h.repo.GetByID(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		respond.Internal(w, "image", err)
		return
	}
	if img == nil {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "ok", img)
}

// Delete handles DELETE /images/{id}. The blob is removed before the record;
// a blob-store failure fails the whole delete so a record never points at a
// half-deleted frame.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	img, err := h.repo.GetByID(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		respond.Internal(w, "image", err)
		return
	}
	if img == nil {
		respond.NotFound(w)
		return
	}
	if err := h.blobs.Delete(r.Context(), img.Path); err != nil {
		respond.Internal(w, "image", err)
		return
	}
	deleted, err := h.repo.Delete(r.Context(), scope, img.ID)
	if err != nil {
		respond.Internal(w, "image", err)
		return
	}
	if !deleted {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "deleted", nil)
}
