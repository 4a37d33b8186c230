// Package handler exposes the realtime telemetry endpoints.
package handler

import (
	"errors"
	"io"
	"net/http"

	"robogo/backend/internal/server/middleware"
	"robogo/backend/internal/server/respond"
	"robogo/backend/internal/telemetry/domain"
	"robogo/backend/internal/telemetry/service"
)

// maxUploadBytes caps a single telemetry upload including the camera frame.
const maxUploadBytes = 10 << 20

// Handler serves telemetry ingest and realtime reads.
type Handler struct {
	ingestor *service.Ingestor
}

// NewHandler returns a telemetry handler over the ingestor.
func NewHandler(ingestor *service.Ingestor) *Handler {
	return &Handler{ingestor: ingestor}
}

// Ingest handles POST /monitoring/realtime. The body is a multipart form:
// every text field goes into the sensor payload as-is, and an optional
// "image" file part attaches a camera frame. Plain form bodies are accepted
// for firmware that cannot send multipart.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}

	payload, img, err := parseIngestBody(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.ingestor.Ingest(r.Context(), scope, payload, img)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			respond.Error(w, http.StatusBadRequest, "no active session; start monitoring first")
			return
		}
		respond.Internal(w, "telemetry", err)
		return
	}
	respond.Success(w, http.StatusCreated, "telemetry buffered", rec)
}

// Realtime handles GET /monitoring/realtime: the running session's buffer.
func (h *Handler) Realtime(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	recs, err := h.ingestor.Realtime(r.Context(), scope)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			respond.Error(w, http.StatusBadRequest, "no active session")
			return
		}
		respond.Internal(w, "telemetry", err)
		return
	}
	if recs == nil {
		recs = []*domain.Record{}
	}
	respond.Success(w, http.StatusOK, "ok", recs)
}

// Last handles GET /monitoring/realtime/last: the most recent buffered sample.
func (h *Handler) Last(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing scope")
		return
	}
	rec, err := h.ingestor.Last(r.Context(), scope)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			respond.Error(w, http.StatusBadRequest, "no active session")
			return
		}
		respond.Internal(w, "telemetry", err)
		return
	}
	if rec == nil {
		respond.NotFound(w)
		return
	}
	respond.Success(w, http.StatusOK, "ok", rec)
}

func parseIngestBody(r *http.Request) (domain.Payload, *service.UploadedImage, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	var img *service.UploadedImage
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, header, ferr := r.FormFile("image")
		if ferr == nil {
			defer file.Close()
			data, rerr := io.ReadAll(file)
			if rerr != nil {
				return nil, nil, errors.New("unreadable image part")
			}
			img = &service.UploadedImage{
				Data:        data,
				ContentType: header.Header.Get("Content-Type"),
				TakenWith:   r.FormValue("takenWith"),
			}
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, nil, errors.New("invalid form body")
	}

	payload := make(domain.Payload, len(r.Form))
	for k, vs := range r.Form {
		if len(vs) > 0 {
			payload[k] = vs[0]
		}
	}
	return payload, img, nil
}
