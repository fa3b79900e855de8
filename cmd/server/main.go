package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/api"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/client"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/database"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/repository"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/wizard"
	"github.com/Linking-Dots/Aero-HR-sub002/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the last migration and exit")
	flag.Parse()

	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Aero HR user wizard server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithOptions(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if *migrateDown {
		if err := db.MigrateDown(migrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back database migration")
		}
		return
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	services := service.NewServices(repos, cfg, log)

	// Wizard sessions talk to this process unless a remote API is configured
	var backend wizard.Backend = wizard.NewLocal(services)
	if cfg.Wizard.BackendURL != "" {
		backend = client.New(cfg.Wizard.BackendURL, cfg.Wizard.RequestTimeout, log)
		log.Info().Str("backend", cfg.Wizard.BackendURL).Msg("Wizard sessions use a remote backend")
	}
	wizards := wizard.NewStore(wizard.ConfigFrom(cfg), backend, log)

	// Start session janitor
	go wizards.StartJanitor(context.Background())

	// Initialize router
	router := api.NewRouter(services, wizards, db, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop janitor and drop open sessions
	wizards.StopJanitor()
	wizards.Shutdown()

	log.Info().Msg("Server exited gracefully")
}
