// Server is the RoboGo backend HTTP API: session lifecycle, telemetry
// ingestion, reports, and record CRUD. Requires DATABASE_URL and the JWT key
// pair; Kafka, Loki, and OTLP are optional.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"robogo/backend/internal/config"
	"robogo/backend/internal/db"
	devicehandler "robogo/backend/internal/device/handler"
	devicerepo "robogo/backend/internal/device/repository"
	devicesvc "robogo/backend/internal/device/service"
	"robogo/backend/internal/events"
	healthhandler "robogo/backend/internal/health/handler"
	imagehandler "robogo/backend/internal/image/handler"
	imagerepo "robogo/backend/internal/image/repository"
	imuhandler "robogo/backend/internal/imu/handler"
	imurepo "robogo/backend/internal/imu/repository"
	"robogo/backend/internal/observability/otel"
	pathhandler "robogo/backend/internal/pathlog/handler"
	pathrepo "robogo/backend/internal/pathlog/repository"
	pathsvc "robogo/backend/internal/pathlog/service"
	"robogo/backend/internal/records"
	"robogo/backend/internal/report"
	reporthandler "robogo/backend/internal/report/handler"
	"robogo/backend/internal/security"
	"robogo/backend/internal/server"
	sessionhandler "robogo/backend/internal/session/handler"
	sessionrepo "robogo/backend/internal/session/repository"
	sessionsvc "robogo/backend/internal/session/service"
	"robogo/backend/internal/storage"
	"robogo/backend/internal/telemetry/buffer"
	telemetryhandler "robogo/backend/internal/telemetry/handler"
	telemetrysvc "robogo/backend/internal/telemetry/service"
	ultrahandler "robogo/backend/internal/ultrasonic/handler"
	ultrarepo "robogo/backend/internal/ultrasonic/repository"
	userhandler "robogo/backend/internal/user/handler"
	userrepo "robogo/backend/internal/user/repository"
	usersvc "robogo/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL is required")
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "robogo-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	privKey, err := security.LoadSigningKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pubKey := privKey.Public()
	if cfg.JWTPublicKey != "" {
		pubKey, err = security.LoadVerifyKey(cfg.JWTPublicKey)
		if err != nil {
			log.Fatalf("jwt public key: %v", err)
		}
	}
	tokens := security.NewTokenProvider(privKey, pubKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	blobs, err := storage.NewFilesystemStore(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var emitter events.Emitter = events.NopEmitter{}
	if kafkaEmitter := events.NewKafkaEmitter(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic); kafkaEmitter != nil {
		emitter = kafkaEmitter
		defer kafkaEmitter.Close()
		log.Printf("events: emitting to kafka topic %s", cfg.EventsKafkaTopic)
	}

	users := userrepo.NewPostgresRepository(database)
	devices := devicerepo.NewPostgresRepository(database)
	counters := sessionrepo.NewPostgresRepository(database)
	buf := buffer.NewPostgresStore(database)
	ultra := ultrarepo.NewPostgresRepository(database)
	imu := imurepo.NewPostgresRepository(database)
	paths := pathrepo.NewPostgresRepository(database)
	images := imagerepo.NewPostgresRepository(database)

	deviceService := devicesvc.NewService(devices, cfg.CacheTTL())
	authService := usersvc.NewAuthService(users, deviceService, hasher, tokens)
	writer := records.NewPostgresWriter(database, ultra, imu)
	finalizer := sessionsvc.NewFinalizer(buf, ultra, imu, writer)
	sessions := sessionsvc.NewManager(counters, ultra, imu, finalizer, emitter)
	ingestor := telemetrysvc.NewIngestor(counters, buf, blobs, images, emitter)
	pathService := pathsvc.NewService(counters, paths)
	reports := report.NewService(ultra, imu)

	srv := server.New(server.Handlers{
		Auth:      userhandler.NewHandler(authService),
		Session:   sessionhandler.NewHandler(sessions),
		Telemetry: telemetryhandler.NewHandler(ingestor),
		Report:    reporthandler.NewHandler(reports),
		Ultra:     ultrahandler.NewHandler(ultra),
		IMU:       imuhandler.NewHandler(imu),
		Path:      pathhandler.NewHandler(pathService, paths),
		Image:     imagehandler.NewHandler(images, blobs),
		Device:    devicehandler.NewHandler(deviceService),
		Health:    healthhandler.NewHandler(database),
	}, tokens, providers.MeterProvider.Meter("robogo/backend/server"))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("http server stopped")
}
