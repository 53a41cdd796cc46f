package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/consumers"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/events"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/handler"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/repository"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/snapshot"
	"github.com/punchclock/punchclock-backend/migrations"
	"github.com/punchclock/punchclock-backend/pkg/auth"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/database"
	"github.com/punchclock/punchclock-backend/pkg/httputil"
	"github.com/punchclock/punchclock-backend/pkg/i18n"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/punchclock/punchclock-backend/pkg/messaging"
)

const serviceName = "punchclock-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment, cfg.Server.LogLevel)
	log.Info().Msg("starting PunchClock Service")

	clk, err := clock.NewInZone(cfg.Server.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Server.Timezone).Msg("invalid timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if _, err := migrations.Run(ctx, db.DB, log); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// Connect to RabbitMQ
	rmq, err := messaging.Dial(ctx, &cfg.RabbitMQ, serviceName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewRabbitPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	snapshots, closeSnapshots, err := openSnapshotStore(&cfg.Recovery, clk)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Recovery.Backend).Msg("failed to open recovery snapshot store")
	}
	defer closeSnapshots()

	purger := snapshot.NewPurger(snapshots, cfg.Recovery.PurgeInterval, log.WithComponent("snapshot-purger"))
	purger.Start(ctx)
	defer purger.Stop()

	// Initialize repositories
	entryRepo := repository.NewEntryRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	userCacheRepo := repository.NewUserCacheRepository(db)

	// Initialize services
	averages := domain.AverageConfig{
		Mode:               cfg.Statistics.DailyAverageMode,
		WindowDays:         cfg.Statistics.WindowDays,
		MinBusinessSamples: cfg.Statistics.BusinessDaysMinSamples,
	}
	punchTokens := auth.NewPunchTokens(&cfg.JWT, &cfg.Punch, clk)
	resolver := service.NewEmployeeResolver(employeeRepo, userCacheRepo, clk, log)
	entryService := service.NewEntryService(entryRepo, employeeRepo, resolver, punchTokens, publisher, clk, log)
	statisticsService := service.NewStatisticsService(entryRepo, employeeRepo, resolver, averages, clk, log)
	dashboardService := service.NewDashboardService(entryRepo, clk, log)
	recoveryService := service.NewRecoveryService(entryRepo, employeeRepo, snapshots, cfg.Recovery.TTL, publisher, clk, log)

	// Start user event consumer
	consumerLog := log.WithComponent("user-consumer")
	userConsumer, err := consumers.NewUserEventConsumer(rmq, consumers.NewUserEventHandler(userCacheRepo, resolver, consumerLog), consumerLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user event consumer")
	}
	if err := userConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start user event consumer")
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Entries:    handler.NewEntryHandler(entryService, log),
		Recovery:   handler.NewRecoveryHandler(recoveryService, log),
		Statistics: handler.NewStatisticsHandler(statisticsService, log),
		Dashboard:  handler.NewDashboardHandler(dashboardService, log),
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (bearer token required)
	tokens := auth.NewManager(&cfg.JWT, clk)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(tokens, log))
		handlers.Routes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Str("timezone", clk.Location().String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers and the purge loop
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// openSnapshotStore opens the configured recovery backend. The returned
// func releases it.
func openSnapshotStore(cfg *config.RecoveryConfig, clk clock.Clock) (snapshot.Store, func() error, error) {
	if cfg.Backend == config.RecoveryBackendBolt {
		store, err := snapshot.OpenBoltStore(cfg.BoltPath, clk)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return snapshot.NewMemoryStore(clk), func() error { return nil }, nil
}
