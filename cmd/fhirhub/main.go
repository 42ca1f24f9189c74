package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/svoer/FhirConverter/api"
	"github.com/svoer/FhirConverter/config"
	"github.com/svoer/FhirConverter/converter"
	"github.com/svoer/FhirConverter/conversionlog"
	"github.com/svoer/FhirConverter/monitor"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).
		With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}
	log.Info().Msg("Starting fhirhub")

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := conversionlog.NewRepository(db, log)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logService := conversionlog.NewService(repo, log)
	conv := converter.NewService(log)

	if cfg.MonitorEnabled {
		watcher, err := monitor.NewService(monitor.Config{
			InputDir:       cfg.InputDir,
			OutputDir:      cfg.OutputDir,
			Interval:       cfg.MonitorInterval,
			FileExtensions: cfg.FileExtensions,
		}, conv, logService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start file monitor")
		}
		go watcher.Run(ctx)
	}

	router := api.NewRouter(conv, logService, cfg.APIKey, cfg.InputDir, cfg.OutputDir, log)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.Handler(),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
	}
}
