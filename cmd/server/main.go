package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/config"
	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/sehri/internal/jobs"
	"github.com/Nixie-Tech-LLC/sehri/internal/notify"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
	"github.com/Nixie-Tech-LLC/sehri/internal/progress"
	"github.com/Nixie-Tech-LLC/sehri/internal/redis"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(db.DB)
	seedAdmin(cfg, store)

	registry := initProgressRegistry(cfg)
	hub := notify.NewHub()
	defer hub.Close()
	publisher, closePublisher := initNotifier(cfg, hub)
	defer closePublisher()
	files := InitStorage(cfg)

	limiter := prayertime.SharedLimiter(prayertime.LimiterConfig{
		Capacity:   cfg.PrayerAPI.RateLimitCapacity,
		RefillRate: cfg.PrayerAPI.RateLimitRefillRate,
	})
	client := prayertime.NewClient(
		prayertime.NewAladhan(prayertime.AladhanConfig{
			BaseURL: cfg.PrayerAPI.BaseURL,
			Method:  cfg.PrayerAPI.Method,
			School:  cfg.PrayerAPI.School,
			Country: cfg.PrayerAPI.Country,
			Timeout: cfg.PrayerAPI.Timeout,
		}),
		limiter,
		prayertime.NewCache(),
		prayertime.ClientConfig{
			RequestDelay: cfg.Fetch.RequestDelay,
			Retry: prayertime.RetryPolicy{
				MaxRetries: cfg.PrayerAPI.MaxRetries,
				BaseDelay:  cfg.PrayerAPI.RetryDelay,
			},
		},
	)
	orchestrator := prayertime.NewOrchestrator(client, prayertime.OrchestratorConfig{
		MaxConcurrentDistricts: cfg.Fetch.MaxConcurrentDistricts,
		DistrictDelay:          cfg.Fetch.DistrictDelay,
	})
	runner := jobs.NewRunner(orchestrator, store, registry, publisher, jobs.Config{
		BatchSize: cfg.Fetch.BatchSize,
		Timeout:   cfg.Fetch.JobTimeout,
	})

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, Services{
		Store:    store,
		Files:    files,
		Jobs:     runner,
		Client:   client,
		Notifier: publisher,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	runner.Close()
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// seedAdmin creates the first admin account when the users table is empty.
func seedAdmin(cfg *config.Config, store db.Store) {
	count, err := store.CountUsers()
	if err != nil {
		log.Fatal().Err(err).Msg("count users")
	}
	if count > 0 {
		return
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Warn().Msg("no users yet; set ADMIN_EMAIL and ADMIN_PASSWORD to create an admin")
		return
	}
	hashed, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("hash admin password")
	}
	if _, err := store.CreateUser(cfg.AdminEmail, hashed, nil, true); err != nil {
		log.Fatal().Err(err).Msg("create admin")
	}
	log.Info().Str("email", cfg.AdminEmail).Msg("created admin user")
}

func initProgressRegistry(cfg *config.Config) progress.Registry {
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, keeping fetch progress in memory")
		return progress.NewMemoryRegistry()
	}
	client, err := redis.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	return progress.NewRedisRegistry(client, progress.DefaultTTL)
}

// initNotifier always includes the display hub and adds MQTT when a broker
// is configured.
func initNotifier(cfg *config.Config, hub *notify.Hub) (jobs.Notifier, func()) {
	if cfg.MQTTBrokerURL == "" {
		return hub, func() {}
	}
	publisher, err := notify.NewPublisher(notify.PublisherConfig{
		BrokerURL: cfg.MQTTBrokerURL,
		Topic:     cfg.MQTTTopic,
	})
	if err != nil {
		log.Error().Err(err).Msg("mqtt unavailable, events go to websocket displays only")
		return hub, func() {}
	}
	return notify.Fanout{hub, publisher}, publisher.Close
}
