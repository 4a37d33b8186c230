// Package handler exposes the readiness endpoint.
package handler

import (
	"database/sql"
	"net/http"

	"robogo/backend/internal/server/respond"
)

// Handler serves the health check.
type Handler struct {
	db *sql.DB
}

// NewHandler returns a health handler pinging the given db.
func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// Health handles GET /health. Readiness means the database answers a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		respond.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respond.Success(w, http.StatusOK, "healthy", nil)
}
