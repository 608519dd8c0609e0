package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicore/platform/pkg/common/config"
	"github.com/clinicore/platform/pkg/common/database"
	"github.com/clinicore/platform/pkg/common/kafka"
	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/gateway/middleware"
	"github.com/clinicore/platform/pkg/magiclink"
	"github.com/clinicore/platform/pkg/patient"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init("patient-service")
	cfg := config.Load()

	site, err := patient.LoadSiteProfile(cfg.SiteProfilePath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load site profile")
	}

	primaryDB, err := database.GetPrimary()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to primary store")
	}
	defer database.ClosePrimary()

	legacyDB, err := database.GetLegacy()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to legacy store")
	}
	defer database.CloseLegacy()

	primaryRepo := patient.NewPrimaryRepository(primaryDB, cfg.PrimaryStoreTimeout)
	if err := primaryRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate primary patient table")
	}

	// The legacy schema belongs to the old clinic system and is never
	// migrated from here.
	legacyRepo := patient.NewLegacyRepository(legacyDB, site.Site, cfg.LegacyStoreTimeout)

	redisClient := database.GetRedis()
	defer database.CloseRedis()
	cache := patient.NewRedisIdentityCache(redisClient, cfg.IdentityCacheTTL)

	producer := kafka.NewProducer(cfg.PatientEventTopic)
	defer producer.Close()

	coordinator := patient.NewCoordinator(legacyRepo, primaryRepo, site, producer)
	resolver := patient.NewResolver(primaryRepo, legacyRepo, cache, producer)
	reader := patient.NewReader(primaryRepo, legacyRepo)
	validator := patient.NewValidator()

	patientHandler := patient.NewHTTPHandler(coordinator, resolver, reader, validator, cfg.MaxRequestBody)

	linkService := magiclink.NewService(resolver, magiclink.NewRedisTokenStore(redisClient), cfg.MagicLinkTTL)
	linkHandler := magiclink.NewHTTPHandler(linkService, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.Actor)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	patientHandler.Register(api)
	linkHandler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
			"site": site.Site,
		}).Info("Patient Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Patient Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Patient Service stopped")
}
