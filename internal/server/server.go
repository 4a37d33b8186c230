// Package server builds the HTTP API router: public auth and health routes
// plus the token-guarded telemetry surface under /api/v1.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/metric"

	devicehandler "robogo/backend/internal/device/handler"
	healthhandler "robogo/backend/internal/health/handler"
	imagehandler "robogo/backend/internal/image/handler"
	imuhandler "robogo/backend/internal/imu/handler"
	pathhandler "robogo/backend/internal/pathlog/handler"
	reporthandler "robogo/backend/internal/report/handler"
	"robogo/backend/internal/security"
	"robogo/backend/internal/server/middleware"
	sessionhandler "robogo/backend/internal/session/handler"
	telemetryhandler "robogo/backend/internal/telemetry/handler"
	ultrahandler "robogo/backend/internal/ultrasonic/handler"
	userhandler "robogo/backend/internal/user/handler"
)

// Handlers collects the per-area HTTP handlers the router mounts.
type Handlers struct {
	Auth      *userhandler.Handler
	Session   *sessionhandler.Handler
	Telemetry *telemetryhandler.Handler
	Report    *reporthandler.Handler
	Ultra     *ultrahandler.Handler
	IMU       *imuhandler.Handler
	Path      *pathhandler.Handler
	Image     *imagehandler.Handler
	Device    *devicehandler.Handler
	Health    *healthhandler.Handler
}

// Server is the configured HTTP API.
type Server struct {
	router *mux.Router
}

// New builds the router with logging and metrics on every route and bearer
// auth on everything except registration, login, and health.
func New(h Handlers, tokens *security.TokenProvider, meter metric.Meter) *Server {
	root := mux.NewRouter()
	root.Use(middleware.Logging)
	root.Use(middleware.Metrics(meter))

	api := root.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Auth(tokens))

	authed.HandleFunc("/monitoring/start", h.Session.Start).Methods(http.MethodGet)
	authed.HandleFunc("/monitoring/stop", h.Session.Stop).Methods(http.MethodGet)
	authed.HandleFunc("/monitoring/realtime", h.Telemetry.Ingest).Methods(http.MethodPost)
	authed.HandleFunc("/monitoring/realtime", h.Telemetry.Realtime).Methods(http.MethodGet)
	authed.HandleFunc("/monitoring/realtime/last", h.Telemetry.Last).Methods(http.MethodGet)

	authed.HandleFunc("/reports/summaries", h.Report.Ultrasonic).Methods(http.MethodGet)
	authed.HandleFunc("/reports/summaries/{date}", h.Report.Ultrasonic).Methods(http.MethodGet)
	authed.HandleFunc("/reports/summaries/{date}/session/{id}", h.Report.Ultrasonic).Methods(http.MethodGet)
	authed.HandleFunc("/reports/imu/summaries", h.Report.IMU).Methods(http.MethodGet)
	authed.HandleFunc("/reports/imu/summaries/{date}", h.Report.IMU).Methods(http.MethodGet)
	authed.HandleFunc("/reports/imu/summaries/{date}/session/{id}", h.Report.IMU).Methods(http.MethodGet)
	authed.HandleFunc("/reports/dates", h.Report.Dates).Methods(http.MethodGet)
	authed.HandleFunc("/reports/dates-with-sessions", h.Report.DatesWithSessions).Methods(http.MethodGet)

	authed.HandleFunc("/logs/ultrasonic", h.Ultra.List).Methods(http.MethodGet)
	authed.HandleFunc("/logs/ultrasonic/{id}", h.Ultra.Get).Methods(http.MethodGet)
	authed.HandleFunc("/logs/ultrasonic/{id}", h.Ultra.Delete).Methods(http.MethodDelete)
	authed.HandleFunc("/logs/imu", h.IMU.List).Methods(http.MethodGet)
	authed.HandleFunc("/logs/imu/{id}", h.IMU.Get).Methods(http.MethodGet)
	authed.HandleFunc("/logs/imu/{id}", h.IMU.Delete).Methods(http.MethodDelete)
	authed.HandleFunc("/logs/path", h.Path.Ingest).Methods(http.MethodPost)
	authed.HandleFunc("/logs/path", h.Path.List).Methods(http.MethodGet)
	authed.HandleFunc("/logs/path/{id}", h.Path.Get).Methods(http.MethodGet)
	authed.HandleFunc("/logs/path/{id}", h.Path.Delete).Methods(http.MethodDelete)

	authed.HandleFunc("/images", h.Image.List).Methods(http.MethodGet)
	authed.HandleFunc("/images/{id}", h.Image.Get).Methods(http.MethodGet)
	authed.HandleFunc("/images/{id}", h.Image.Delete).Methods(http.MethodDelete)

	authed.HandleFunc("/devices", h.Device.List).Methods(http.MethodGet)
	authed.HandleFunc("/devices", h.Device.Create).Methods(http.MethodPost)
	authed.HandleFunc("/devices/{id}/assign", h.Device.Assign).Methods(http.MethodPost)

	return &Server{router: root}
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.router
}
